// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hindsightlab/hindsight/internal/database"
	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// Scheduler manages cron-driven maintenance: pruning expired series cache
// entries and compacting the scenario database.
type Scheduler struct {
	cron       *cron.Cron
	cache      *series.Cache
	scenarioDB *database.DB
	log        zerolog.Logger
}

// New creates a scheduler over the given cache and scenario database.
func New(cache *series.Cache, scenarioDB *database.DB, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		cache:      cache,
		scenarioDB: scenarioDB,
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the maintenance jobs. sweepSpec is a cron spec such as
// "@hourly"; the database vacuum runs daily off-hours.
func (s *Scheduler) Register(sweepSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, s.sweepCache); err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("30 4 * * *", s.vacuumScenarios); err != nil {
		return fmt.Errorf("register scenario vacuum: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Maintenance scheduler started")
}

// Stop stops the cron scheduler. Running jobs finish before it returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Maintenance scheduler stopped")
}

func (s *Scheduler) sweepCache() {
	pruned := s.cache.Sweep()
	s.log.Debug().Int("pruned", pruned).Msg("Cache sweep completed")
}

func (s *Scheduler) vacuumScenarios() {
	if s.scenarioDB == nil {
		return
	}
	if err := s.scenarioDB.Vacuum(); err != nil {
		s.log.Error().Err(err).Msg("Scenario database vacuum failed")
		return
	}
	s.log.Debug().Msg("Scenario database vacuumed")
}
