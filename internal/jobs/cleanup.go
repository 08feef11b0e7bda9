package jobs

import (
	"log/slog"
	"time"

	"ackee/internal/records"
	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

// TokenCleanupJob removes tokens that expired without being used.
type TokenCleanupJob struct {
	conn   ConnectionProvider
	logger *slog.Logger
	ttl    time.Duration
	clock  timeframe.TimeProvider
}

func NewTokenCleanupJob(conn ConnectionProvider, logger *slog.Logger, ttl time.Duration, clock timeframe.TimeProvider) *TokenCleanupJob {
	return &TokenCleanupJob{conn: conn, logger: logger, ttl: ttl, clock: clock}
}

func (j *TokenCleanupJob) Name() string { return "token_cleanup" }

func (j *TokenCleanupJob) Run() error {
	removed, err := tokens.DeleteExpired(j.conn.GetConnection(), j.logger, j.ttl, j.clock.Now(time.UTC))
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.Info("Removed expired tokens", slog.Int64("deleted_count", removed))
	}
	return nil
}

// RetentionJob removes records older than the retention period.
// This helps with GDPR data minimization and reduces storage usage.
type RetentionJob struct {
	conn          ConnectionProvider
	logger        *slog.Logger
	retentionDays int
	clock         timeframe.TimeProvider
}

func NewRetentionJob(conn ConnectionProvider, logger *slog.Logger, retentionDays int, clock timeframe.TimeProvider) *RetentionJob {
	return &RetentionJob{conn: conn, logger: logger, retentionDays: retentionDays, clock: clock}
}

func (j *RetentionJob) Name() string { return "record_retention" }

// Enabled reports whether a retention period is configured.
func (j *RetentionJob) Enabled() bool {
	return j.retentionDays > 0
}

func (j *RetentionJob) Run() error {
	if !j.Enabled() {
		return nil
	}

	cutoff := timeframe.SubDays(j.clock.Now(time.UTC), j.retentionDays)
	j.logger.Info("Starting cleanup of old records",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff_date", cutoff))

	removed, err := records.DeleteOlderThan(j.conn.GetConnection(), j.logger, cutoff)
	if err != nil {
		j.logger.Error("Failed to delete old records",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", removed))
		return err
	}

	j.logger.Info("Cleaned up old records",
		slog.Int64("deleted_count", removed),
		slog.Int("retention_days", j.retentionDays))
	return nil
}
