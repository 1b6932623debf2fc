// cmd/migrate/main.go
// One-shot import of the legacy MySQL event system into the local
// PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/raceday_legacy?parseTime=true" \
//	DB_PASS="pgpass" JWT_SECRET=x \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"raceday/config"
	bundb "raceday/db"
	"raceday/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/raceday_legacy?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"events", func() (int, error) { return migrateEvents(ctx, myDB, pgDB) }},
		{"categories", func() (int, error) { return migrateCategories(ctx, myDB, pgDB) }},
		{"participants", func() (int, error) { return migrateParticipants(ctx, myDB, pgDB) }},
		{"results", func() (int, error) { return migrateResults(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// --- helpers ---

func nullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func insertBatch[T any](ctx context.Context, db *bun.DB, rows []T) error {
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		chunk := rows[i:end]
		if _, err := db.NewInsert().Model(&chunk).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// --- steps ---

func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, username, password_hash, is_admin, is_marshal FROM users`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var isAdmin, isMarshal bool
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &isAdmin, &isMarshal); err != nil {
			return 0, err
		}
		switch {
		case isAdmin:
			u.Role = models.RoleAdmin
		case isMarshal:
			u.Role = models.RoleMarshal
		default:
			u.Role = models.RoleRunner
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(users), insertBatch(ctx, pgDB, users)
}

func migrateEvents(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, name, slug, location, event_date, registration_open, created_at FROM events`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var date, created time.Time
		if err := rows.Scan(&e.EventID, &e.Name, &e.Slug, &e.Location, &date, &e.RegistrationOpen, &created); err != nil {
			return 0, err
		}
		e.Date = fmtDate(date)
		e.CreatedAt = created
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(events), insertBatch(ctx, pgDB, events)
}

func migrateCategories(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, event_id, name, distance_km FROM race_categories`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var ct models.Category
		if err := rows.Scan(&ct.CategoryID, &ct.EventID, &ct.Name, &ct.DistanceKM); err != nil {
			return 0, err
		}
		categories = append(categories, ct)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(categories), insertBatch(ctx, pgDB, categories)
}

func migrateParticipants(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, `
		SELECT r.id, r.user_id, c.event_id, r.category_id, r.status, r.paid, r.checked_in_at, r.created_at
		FROM registrations r
		INNER JOIN race_categories c ON c.id = r.category_id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var paid bool
		var checkedIn sql.NullTime
		if err := rows.Scan(&p.ParticipantID, &p.UserID, &p.EventID, &p.CategoryID,
			&p.Status, &paid, &checkedIn, &p.CreatedAt); err != nil {
			return 0, err
		}
		p.PaymentStatus = models.PaymentUnpaid
		if paid {
			p.PaymentStatus = models.PaymentPaid
		}
		if checkedIn.Valid {
			t := checkedIn.Time
			p.CheckedInAt = &t
		}
		// The legacy system had no check-in tokens; mint fresh ones.
		p.CheckinToken = uuid.NewString()
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(participants), insertBatch(ctx, pgDB, participants)
}

func migrateResults(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, registration_id, category_id, completion_time, ranking, note, recorded_at FROM race_results`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var r models.Result
		var ranking sql.NullInt64
		var note sql.NullString
		if err := rows.Scan(&r.ID, &r.ParticipantID, &r.CategoryID,
			&r.CompletionTime, &ranking, &note, &r.RecordedAt); err != nil {
			return 0, err
		}
		r.Ranking = nullInt(ranking)
		r.Note = nullStr(note)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(results), insertBatch(ctx, pgDB, results)
}

func resetSequences(ctx context.Context, pgDB *bun.DB) {
	seqs := []struct{ table, col string }{
		{"users", "id"},
		{"events", "event_id"},
		{"categories", "category_id"},
		{"participants", "participant_id"},
		{"results", "id"},
	}
	for _, s := range seqs {
		q := `SELECT setval(pg_get_serial_sequence('` + s.table + `', '` + s.col + `'), COALESCE(MAX(` + s.col + `), 1)) FROM ` + s.table
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset sequence %s.%s: %v", s.table, s.col, err)
		}
	}
}
