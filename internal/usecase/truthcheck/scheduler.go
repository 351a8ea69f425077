package truthcheck

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
)

// Scheduler reruns the truth checks on a cron schedule so the gauges stay current
type Scheduler struct {
	service *TruthCheckService
	logger  *logger.Logger
	cron    *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// NewScheduler parses schedule (standard five-field spec or a descriptor such as "@every 5m")
func NewScheduler(schedule string, service *TruthCheckService, log *logger.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		service: service,
		logger:  logger.OrNop(log),
		cron:    c,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := c.AddFunc(schedule, func() { s.Run(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to parse truth check schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule; calling it twice is a no-op
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("truth check scheduler started")
}

// Stop cancels a running check and waits for it to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cancel()
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	s.logger.Info("truth check scheduler stopped")
}

// Run performs one check; failures and findings are logged, never returned
func (s *Scheduler) Run(ctx context.Context) {
	res, err := s.service.BuildTruthChecks(ctx)
	if err != nil {
		s.logger.Error("truth check failed", "error", err)
		return
	}
	if res.Healthy() {
		s.logger.Debug("truth check healthy")
		return
	}
	for _, f := range res.Findings {
		s.logger.Warn("truth check finding", "code", f.Code, "count", f.Count, "message", f.Message)
	}
}
