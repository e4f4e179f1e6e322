// Package jobs runs the server's scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 2 * time.Minute

// MedicationResetter clears the daily "taken" marks.
type MedicationResetter interface {
	ResetDailyMedications(ctx context.Context) (int64, error)
}

// Runner owns the cron scheduler.
type Runner struct {
	scheduler *gocron.Scheduler
}

func NewRunner(loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Runner{scheduler: s}
}

// ScheduleMedicationReset runs the reset every day at the given "HH:MM".
func (r *Runner) ScheduleMedicationReset(at string, meds MedicationResetter) error {
	if _, err := time.Parse("15:04", at); err != nil {
		return fmt.Errorf("invalid reset time %q: %w", at, err)
	}
	_, err := r.scheduler.Every(1).Day().At(at).Tag("medication-reset").Do(func() {
		ResetMedications(context.Background(), meds)
	})
	if err != nil {
		return fmt.Errorf("schedule medication reset: %w", err)
	}
	log.Info().Str("at", at).Msg("medication reset scheduled")
	return nil
}

// ResetMedications is the body of the daily job.
func ResetMedications(ctx context.Context, meds MedicationResetter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := meds.ResetDailyMedications(ctx)
	if err != nil {
		log.Error().Err(err).Msg("medication reset failed")
		return 0, err
	}
	log.Info().Int64("medications", n).Dur("took", time.Since(start)).Msg("medication reset complete")
	return n, nil
}

func (r *Runner) Start() {
	r.scheduler.StartAsync()
}

func (r *Runner) Stop() {
	r.scheduler.Stop()
}

// Len is the number of scheduled jobs.
func (r *Runner) Len() int {
	return r.scheduler.Len()
}
