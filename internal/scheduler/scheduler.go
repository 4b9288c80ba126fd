package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Cleaner interface {
	Cleanup() int
}

// Scheduler refreshes trend forecasts on a cron schedule and sweeps the
// trend cache once a minute.
type Scheduler struct {
	refresher Refresher
	cleaner   Cleaner
	logger    *zap.Logger
	spec      string
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	running   bool
	lastRun   time.Time

	// refreshes tracks runs started outside cron so Stop can wait for them.
	refreshes sync.WaitGroup
}

func NewScheduler(refresher Refresher, cleaner Cleaner, spec string, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		refresher: refresher,
		cleaner:   cleaner,
		logger:    logger,
		spec:      spec,
		timeout:   60 * time.Second,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start registers the jobs, runs one refresh immediately, and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	id, err := s.cron.AddFunc(s.spec, s.runRefresh)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid trend schedule %q: %w", s.spec, err)
	}
	s.entryID = id

	if s.cleaner != nil {
		if _, err := s.cron.AddFunc("@every 1m", s.runCleanup); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("scheduling cache cleanup: %w", err)
		}
	}

	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("schedule", s.spec),
		zap.Time("next_run", s.cron.Entry(id).Next))

	// Run immediately on start
	s.goRefresh()

	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info("Starting scheduled trend refresh", zap.Time("start_time", startTime))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("Scheduled trend refresh failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
	} else {
		s.logger.Info("Scheduled trend refresh completed",
			zap.Duration("duration", time.Since(startTime)))
	}
}

func (s *Scheduler) goRefresh() {
	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()
		s.runRefresh()
	}()
}

func (s *Scheduler) runCleanup() {
	s.cleaner.Cleanup()
}

// Stop halts the cron loop and waits for every running refresh to finish,
// including those started by Start and ForceRun.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if wasRunning {
		s.logger.Info("Stopping scheduler")
		<-s.cron.Stop().Done()
	}
	s.refreshes.Wait()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering trend refresh")
	s.goRefresh()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"schedule": s.spec,
		"last_run": s.lastRun,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
