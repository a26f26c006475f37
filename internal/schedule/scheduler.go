package schedule

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Register schedules a job. A tick is skipped when the previous run of the
// same job is still in flight.
func (s *Scheduler) Register(spec string, job Job) error {
	var running atomic.Bool
	_, err := s.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			logutil.GetLogger(context.Background()).Warn("job still running, skip tick",
				zap.String("job", job.Name()))
			return
		}
		defer running.Store(false)
		ctx := context.Background()
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		logger.Debug("job started")
		if err := job.Run(ctx); err != nil {
			logger.Error("job failed", zap.Error(err))
			return
		}
		logger.Debug("job finished")
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
