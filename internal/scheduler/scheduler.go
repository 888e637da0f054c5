package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/akazakov/cashflow-service/internal/service"
)

// batchTimeout bounds one periodic batch run.
const batchTimeout = 10 * time.Minute

// Scheduler drives the recurring-obligation batch on a cron cadence.
type Scheduler struct {
	cron *cron.Cron
	svc  *service.Service
	log  *logrus.Logger
}

// New builds a scheduler that invokes ProcessDueObligations on the given
// cron spec.
func New(svc *service.Service, spec string, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		svc:  svc,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, s.runBatch); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("Obligation scheduler started")
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Obligation scheduler stopped")
}

func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	result, err := s.svc.ProcessDueObligations(ctx, time.Now().UTC(), false)
	if err != nil {
		s.log.Errorf("Scheduled batch failed: %v", err)
		return
	}
	if len(result.Errors) > 0 {
		s.log.Warnf("Scheduled batch %s finished with %d template errors", result.RunID, len(result.Errors))
	}
}
