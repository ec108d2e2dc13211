// Package jobs runs scheduled background work.
package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps the cron runner and owns job registration
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Register adds a job under the given cron spec
func (s *Scheduler) Register(spec string, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("job started", zap.String("job", name))
		job()
		s.logger.Info("job finished", zap.String("job", name))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
