package handlers

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	appdb "raceday/db"
	"raceday/models"
	"raceday/ranking"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	if err := appdb.CreateTables(context.Background(), bdb); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })

	return bdb
}

func newTestHandler(t *testing.T) (*Handler, *bun.DB) {
	t.Helper()
	db := setupTestDB(t)
	engine := ranking.NewEngine(db, zap.NewNop())
	return New(db, engine, []byte("test-secret")), db
}

// newTestContext builds an echo context for a JSON request.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

// --- seed helpers ---

func seedUser(t *testing.T, db *bun.DB, username, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x", Role: role}
	if _, err := db.NewInsert().Model(u).Exec(context.Background()); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedEvent(t *testing.T, db *bun.DB, name string) *models.Event {
	t.Helper()
	e := &models.Event{
		Name:             name,
		Slug:             strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Location:         "Riverside Park",
		Date:             "2026-05-10",
		RegistrationOpen: true,
		CreatedAt:        time.Now(),
	}
	if _, err := db.NewInsert().Model(e).Exec(context.Background()); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func seedCategory(t *testing.T, db *bun.DB, eventID int, name string, km float64) *models.Category {
	t.Helper()
	ct := &models.Category{EventID: eventID, Name: name, DistanceKM: km}
	if _, err := db.NewInsert().Model(ct).Exec(context.Background()); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return ct
}

func seedParticipant(t *testing.T, db *bun.DB, userID, eventID, categoryID int, status string) *models.Participant {
	t.Helper()
	p := &models.Participant{
		UserID:        userID,
		EventID:       eventID,
		CategoryID:    categoryID,
		Status:        status,
		PaymentStatus: models.PaymentPaid,
		CheckinToken:  uuid.NewString(),
		CreatedAt:     time.Now(),
	}
	if _, err := db.NewInsert().Model(p).Exec(context.Background()); err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	return p
}

// seedApproved creates a user and an approved registration in one go.
func seedApproved(t *testing.T, db *bun.DB, username string, eventID, categoryID int) *models.Participant {
	t.Helper()
	u := seedUser(t, db, username, models.RoleRunner)
	return seedParticipant(t, db, u.ID, eventID, categoryID, models.StatusApproved)
}
