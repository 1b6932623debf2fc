// Package workers holds background jobs that run alongside the HTTP server.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"raceday/models"
)

// RegistrationCloser flips registration_open off for events whose date has
// passed, on a cron schedule.
type RegistrationCloser struct {
	db    *bun.DB
	log   *zap.Logger
	sched gocron.Scheduler
}

// NewRegistrationCloser builds the worker with the given cron spec
// (standard five-field cron, e.g. "0 3 * * *").
func NewRegistrationCloser(db *bun.DB, log *zap.Logger, cronSpec string) (*RegistrationCloser, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	w := &RegistrationCloser{db: db, log: log, sched: sched}

	if _, err := sched.NewJob(
		gocron.CronJob(cronSpec, false),
		gocron.NewTask(w.run),
	); err != nil {
		return nil, fmt.Errorf("scheduling registration close job: %w", err)
	}

	return w, nil
}

// Start begins running the schedule in the background.
func (w *RegistrationCloser) Start() {
	w.sched.Start()
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (w *RegistrationCloser) Stop() {
	if err := w.sched.Shutdown(); err != nil {
		w.log.Warn("scheduler shutdown", zap.Error(err))
	}
}

func (w *RegistrationCloser) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := time.Now().Format("2006-01-02")
	res, err := w.db.NewUpdate().Model((*models.Event)(nil)).
		Set("registration_open = ?", false).
		Where("registration_open = ?", true).
		Where("date < ?", today).
		Exec(ctx)
	if err != nil {
		w.log.Error("close past-event registrations", zap.Error(err))
		return
	}

	if n, _ := res.RowsAffected(); n > 0 {
		w.log.Info("closed registrations for past events", zap.Int64("events", n))
	}
}
