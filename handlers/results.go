package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"raceday/models"
)

type recordFinishInput struct {
	ParticipantID  int    `json:"participantID"`
	CategoryID     int    `json:"categoryID"`
	CompletionTime string `json:"completionTime"`
	Note           string `json:"note,omitempty"`
}

// recordedResult is the enriched response for a freshly recorded finish.
type recordedResult struct {
	ID             int       `json:"id"`
	ParticipantID  int       `json:"participantID"`
	CategoryID     int       `json:"categoryID"`
	CompletionTime string    `json:"completionTime"`
	Ranking        *int      `json:"ranking"`
	Note           *string   `json:"note,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
	Runner         string    `json:"runner"`
	Category       string    `json:"category"`
	Event          string    `json:"event"`
}

// RecordFinish records a participant's completion time and synchronously
// recomputes the category's rankings. Staff only. A participant's finish
// is recorded exactly once; corrections are not exposed through this path.
func (h *Handler) RecordFinish(c echo.Context) error {
	var in recordFinishInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.CompletionTime = strings.TrimSpace(in.CompletionTime)
	if in.ParticipantID == 0 || in.CategoryID == 0 || in.CompletionTime == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "participantID, categoryID and completionTime are required")
	}

	ctx := c.Request().Context()

	participant := &models.Participant{}
	err := h.db.NewSelect().Model(participant).
		Where("participant_id = ?", in.ParticipantID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "participant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if participant.CategoryID != in.CategoryID {
		return echo.NewHTTPError(http.StatusBadRequest, "participant is not registered in this category")
	}
	if participant.Status != models.StatusApproved {
		return echo.NewHTTPError(http.StatusBadRequest, "participant registration is not approved")
	}

	exists, err := h.db.NewSelect().Model((*models.Result)(nil)).
		Where("participant_id = ? AND category_id = ?", in.ParticipantID, in.CategoryID).
		Exists(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if exists {
		return echo.NewHTTPError(http.StatusConflict, "result already recorded for this participant")
	}

	result := &models.Result{
		ParticipantID:  in.ParticipantID,
		CategoryID:     in.CategoryID,
		CompletionTime: in.CompletionTime,
		RecordedAt:     time.Now(),
	}
	if in.Note != "" {
		result.Note = &in.Note
	}
	if _, err := h.db.NewInsert().Model(result).Exec(ctx); err != nil {
		// Unique constraint race between the Exists check and the insert.
		return echo.NewHTTPError(http.StatusConflict, "result already recorded for this participant")
	}

	if err := h.rank.Recalculate(ctx, in.CategoryID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out, err := h.loadRecordedResult(ctx, result.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, out)
}

// recordedResultRow is a flat scan target for the enrichment join.
type recordedResultRow struct {
	ID             int       `bun:"id"`
	ParticipantID  int       `bun:"participant_id"`
	CategoryID     int       `bun:"category_id"`
	CompletionTime string    `bun:"completion_time"`
	Ranking        *int      `bun:"ranking"`
	Note           *string   `bun:"note"`
	RecordedAt     time.Time `bun:"recorded_at"`
	Runner         string    `bun:"runner"`
	Category       string    `bun:"category"`
	Event          string    `bun:"event"`
}

func (h *Handler) loadRecordedResult(ctx context.Context, resultID int) (*recordedResult, error) {
	var row recordedResultRow
	err := h.db.NewSelect().
		TableExpr("results AS r").
		ColumnExpr(`r.id, r.participant_id, r.category_id, r.completion_time,
			r.ranking, r.note, r.recorded_at,
			u.username AS runner, ct.name AS category, e.name AS event`).
		Join("INNER JOIN participants p ON p.participant_id = r.participant_id").
		Join("INNER JOIN users u ON u.id = p.user_id").
		Join("INNER JOIN categories ct ON ct.category_id = r.category_id").
		Join("INNER JOIN events e ON e.event_id = ct.event_id").
		Where("r.id = ?", resultID).
		Scan(ctx, &row)
	if err != nil {
		return nil, err
	}

	return &recordedResult{
		ID:             row.ID,
		ParticipantID:  row.ParticipantID,
		CategoryID:     row.CategoryID,
		CompletionTime: row.CompletionTime,
		Ranking:        row.Ranking,
		Note:           row.Note,
		RecordedAt:     row.RecordedAt,
		Runner:         row.Runner,
		Category:       row.Category,
		Event:          row.Event,
	}, nil
}

// rankingRow is a flat scan target for the rankings join.
type rankingRow struct {
	Ranking        *int      `bun:"ranking"`
	Runner         string    `bun:"runner"`
	CompletionTime string    `bun:"completion_time"`
	RecordedAt     time.Time `bun:"recorded_at"`
}

type rankingEntry struct {
	Ranking        *int      `json:"ranking"`
	Runner         string    `json:"runner"`
	CompletionTime string    `json:"completionTime"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// Rankings returns the ordered results of a category, fastest first.
func (h *Handler) Rankings(c echo.Context) error {
	categoryID := c.QueryParam("categoryID")
	if categoryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing categoryID param")
	}

	var rows []rankingRow
	err := h.db.NewSelect().
		TableExpr("results AS r").
		ColumnExpr("r.ranking, u.username AS runner, r.completion_time, r.recorded_at").
		Join("INNER JOIN participants p ON p.participant_id = r.participant_id").
		Join("INNER JOIN users u ON u.id = p.user_id").
		Where("r.category_id = ?", categoryID).
		OrderExpr("r.ranking ASC").
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]rankingEntry, len(rows))
	for i, row := range rows {
		out[i] = rankingEntry{
			Ranking:        row.Ranking,
			Runner:         row.Runner,
			CompletionTime: row.CompletionTime,
			RecordedAt:     row.RecordedAt,
		}
	}

	return c.JSON(http.StatusOK, out)
}
