package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"ackee/internal/config"
	"ackee/internal/timeframe"
)

// retentionInterval is how often old records are purged.
const retentionInterval = 24 * time.Hour

// ConnectionProvider hands out the database connection jobs run against.
type ConnectionProvider interface {
	GetConnection() *gorm.DB
}

// Job is one unit of background work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	tokenCleanup *TokenCleanupJob
	retention    *RetentionJob

	tokenTicker     *time.Ticker
	retentionTicker *time.Ticker
	wg              sync.WaitGroup
}

// NewScheduler creates the scheduler. The scheduler implements cartridge.BackgroundWorker.
func NewScheduler(conn ConnectionProvider, logger *slog.Logger, cfg *config.Config, clock timeframe.TimeProvider) *Scheduler {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		enabled:      true,
		cfg:          cfg,
		tokenCleanup: NewTokenCleanupJob(conn, logger, cfg.TokenTTL(), clock),
		retention:    NewRetentionJob(conn, logger, cfg.RecordRetentionDays, clock),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(job Job) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", job.Name()))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", job.Name()),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := job.Run(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", job.Name()), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.tokenTicker = s.startJob(s.tokenCleanup, interval)

	if s.retention.Enabled() {
		s.retentionTicker = s.startJob(s.retention, retentionInterval)
	} else {
		s.logger.Info("Record retention disabled, records are kept forever")
	}

	s.logger.Info("Background jobs started", slog.Bool("isRunning", s.isRunning))
	return nil
}

// startJob runs job once right away and then on every tick until the scheduler stops.
func (s *Scheduler) startJob(job Job, interval time.Duration) *time.Ticker {
	s.logger.Info("Starting job", slog.String("job", job.Name()), slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJobSafely(job)

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(job)
			case <-s.ctx.Done():
				s.logger.Info("Job stopped", slog.String("job", job.Name()))
				return
			}
		}
	}()
	return ticker
}

// Stop halts all background jobs and waits for running ones to return.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.tokenTicker != nil {
		s.tokenTicker.Stop()
	}
	if s.retentionTicker != nil {
		s.retentionTicker.Stop()
	}

	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}
