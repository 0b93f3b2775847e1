package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/metrics"
)

const purgeTimeout = time.Minute

// Purger deletes remember-me rows whose expiry has passed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	purger   Purger
	schedule string
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewScheduler takes a six-field cron expression (seconds first).
func NewScheduler(purger Purger, schedule string, m *metrics.Metrics, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		purger:   purger,
		schedule: schedule,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if s.purger == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.purge); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("token purge scheduled")
	return nil
}

// Stop halts the schedule and waits for a running purge, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	if _, err := s.RunPurge(ctx); err != nil {
		s.log.Error().Err(err).Msg("purge expired tokens failed")
	}
}

// RunPurge performs one purge immediately.
func (s *Scheduler) RunPurge(ctx context.Context) (int64, error) {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.Purged(n)
	s.log.Info().Int64("deleted", n).Msg("expired remember tokens purged")
	return n, nil
}
