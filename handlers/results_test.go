package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"raceday/models"
)

func TestRecordFinish(t *testing.T) {
	h, db := newTestHandler(t)
	event := seedEvent(t, db, "Spring Classic")
	category := seedCategory(t, db, event.EventID, "10K", 10)

	p1 := seedApproved(t, db, "alice", event.EventID, category.CategoryID)
	p2 := seedApproved(t, db, "bob", event.EventID, category.CategoryID)
	p3 := seedApproved(t, db, "carol", event.EventID, category.CategoryID)

	record := func(participantID int, completionTime string) (*recordedResult, error) {
		body := fmt.Sprintf(`{"participantID":%d,"categoryID":%d,"completionTime":%q}`,
			participantID, category.CategoryID, completionTime)
		c, rec := newTestContext(http.MethodPost, "/api/results", body)
		if err := h.RecordFinish(c); err != nil {
			return nil, err
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
		}
		var out recordedResult
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return &out, nil
	}

	out, err := record(p1.ParticipantID, "20:15")
	if err != nil {
		t.Fatalf("record first finish: %v", err)
	}
	if out.Ranking == nil || *out.Ranking != 1 {
		t.Fatalf("first finish ranking = %v, want 1", out.Ranking)
	}
	if out.Runner != "alice" || out.Category != "10K" || out.Event != "Spring Classic" {
		t.Errorf("enrichment wrong: %+v", out)
	}

	// A faster finish recorded later takes rank 1.
	out, err = record(p2.ParticipantID, "19:58")
	if err != nil {
		t.Fatalf("record second finish: %v", err)
	}
	if out.Ranking == nil || *out.Ranking != 1 {
		t.Fatalf("faster finish ranking = %v, want 1", out.Ranking)
	}

	// Tie with the first entry: both 20:15 finishes occupy ranks 2 and 3.
	out, err = record(p3.ParticipantID, "20:15")
	if err != nil {
		t.Fatalf("record third finish: %v", err)
	}
	if out.Ranking == nil || (*out.Ranking != 2 && *out.Ranking != 3) {
		t.Fatalf("tied finish ranking = %v, want 2 or 3", out.Ranking)
	}

	var tied []models.Result
	err = db.NewSelect().Model(&tied).
		Where("category_id = ? AND completion_time = ?", category.CategoryID, "20:15").
		Scan(context.Background())
	if err != nil {
		t.Fatalf("fetch tied results: %v", err)
	}
	ranks := map[int]bool{}
	for _, r := range tied {
		if r.Ranking != nil {
			ranks[*r.Ranking] = true
		}
	}
	if !ranks[2] || !ranks[3] {
		t.Errorf("tied results should hold ranks {2,3}, got %v", ranks)
	}
}

func TestRecordFinishNotApproved(t *testing.T) {
	h, db := newTestHandler(t)
	event := seedEvent(t, db, "Spring Classic")
	category := seedCategory(t, db, event.EventID, "10K", 10)

	u := seedUser(t, db, "dave", models.RoleRunner)
	p := seedParticipant(t, db, u.ID, event.EventID, category.CategoryID, models.StatusPending)

	body := fmt.Sprintf(`{"participantID":%d,"categoryID":%d,"completionTime":"20:15"}`,
		p.ParticipantID, category.CategoryID)
	c, _ := newTestContext(http.MethodPost, "/api/results", body)

	err := h.RecordFinish(c)
	if err == nil {
		t.Fatal("expected error for pending participant")
	}
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
	}

	// No result row may be created for the rejected request.
	n, cntErr := db.NewSelect().Model((*models.Result)(nil)).Count(context.Background())
	if cntErr != nil {
		t.Fatalf("count results: %v", cntErr)
	}
	if n != 0 {
		t.Errorf("result rows = %d, want 0", n)
	}
}

func TestRecordFinishDuplicate(t *testing.T) {
	h, db := newTestHandler(t)
	event := seedEvent(t, db, "Spring Classic")
	category := seedCategory(t, db, event.EventID, "10K", 10)
	p := seedApproved(t, db, "erin", event.EventID, category.CategoryID)

	body := fmt.Sprintf(`{"participantID":%d,"categoryID":%d,"completionTime":"42:00"}`,
		p.ParticipantID, category.CategoryID)

	c, _ := newTestContext(http.MethodPost, "/api/results", body)
	if err := h.RecordFinish(c); err != nil {
		t.Fatalf("first record: %v", err)
	}

	c, _ = newTestContext(http.MethodPost, "/api/results", body)
	err := h.RecordFinish(c)
	if err == nil {
		t.Fatal("expected conflict on duplicate result")
	}
	if code := httpStatus(t, err); code != http.StatusConflict {
		t.Errorf("status = %d, want %d", code, http.StatusConflict)
	}

	// The original result and its ranking are untouched.
	var results []models.Result
	if err := db.NewSelect().Model(&results).Scan(context.Background()); err != nil {
		t.Fatalf("fetch results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("result rows = %d, want 1", len(results))
	}
	if results[0].CompletionTime != "42:00" || results[0].Ranking == nil || *results[0].Ranking != 1 {
		t.Errorf("original result modified: %+v", results[0])
	}
}

func TestRecordFinishValidation(t *testing.T) {
	h, db := newTestHandler(t)
	event := seedEvent(t, db, "Spring Classic")
	tenK := seedCategory(t, db, event.EventID, "10K", 10)
	half := seedCategory(t, db, event.EventID, "Half Marathon", 21.1)
	p := seedApproved(t, db, "frank", event.EventID, tenK.CategoryID)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			"missing completion time",
			fmt.Sprintf(`{"participantID":%d,"categoryID":%d}`, p.ParticipantID, tenK.CategoryID),
			http.StatusBadRequest,
		},
		{
			"unknown participant",
			fmt.Sprintf(`{"participantID":9999,"categoryID":%d,"completionTime":"20:15"}`, tenK.CategoryID),
			http.StatusNotFound,
		},
		{
			"wrong category",
			fmt.Sprintf(`{"participantID":%d,"categoryID":%d,"completionTime":"20:15"}`, p.ParticipantID, half.CategoryID),
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPost, "/api/results", tt.body)
			err := h.RecordFinish(c)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := httpStatus(t, err); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRankings(t *testing.T) {
	h, db := newTestHandler(t)
	event := seedEvent(t, db, "Spring Classic")
	category := seedCategory(t, db, event.EventID, "10K", 10)

	for _, f := range []struct {
		username string
		time     string
	}{
		{"gus", "41:30"},
		{"hana", "38:02.5"},
		{"ivan", "44:00"},
	} {
		p := seedApproved(t, db, f.username, event.EventID, category.CategoryID)
		body := fmt.Sprintf(`{"participantID":%d,"categoryID":%d,"completionTime":%q}`,
			p.ParticipantID, category.CategoryID, f.time)
		c, _ := newTestContext(http.MethodPost, "/api/results", body)
		if err := h.RecordFinish(c); err != nil {
			t.Fatalf("record finish for %s: %v", f.username, err)
		}
	}

	c, rec := newTestContext(http.MethodGet, "/api/rankings?categoryID="+fmt.Sprint(category.CategoryID), "")
	if err := h.Rankings(c); err != nil {
		t.Fatalf("rankings: %v", err)
	}

	var out []rankingEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode rankings: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("entries = %d, want 3", len(out))
	}

	wantOrder := []string{"hana", "gus", "ivan"}
	for i, entry := range out {
		if entry.Runner != wantOrder[i] {
			t.Errorf("position %d: runner = %s, want %s", i+1, entry.Runner, wantOrder[i])
		}
		if entry.Ranking == nil || *entry.Ranking != i+1 {
			t.Errorf("position %d: ranking = %v, want %d", i+1, entry.Ranking, i+1)
		}
	}
	// Completion times come back as originally recorded.
	if out[0].CompletionTime != "38:02.5" {
		t.Errorf("completion time = %s, want 38:02.5", out[0].CompletionTime)
	}
}

func TestRankingsMissingParam(t *testing.T) {
	h, _ := newTestHandler(t)

	c, _ := newTestContext(http.MethodGet, "/api/rankings", "")
	err := h.Rankings(c)
	if err == nil {
		t.Fatal("expected error for missing categoryID")
	}
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
	}
}
