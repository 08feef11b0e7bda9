package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ackee/internal/records"
	"ackee/internal/testsupport"
	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestTokenCleanupJob(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	conn := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()

	fresh := testsupport.CreateTestToken(t, db, now.Add(-time.Minute))
	stale := testsupport.CreateTestToken(t, db, now.Add(-2*time.Hour))

	job := NewTokenCleanupJob(conn, logger, time.Hour, &timeframe.FixedTimeProvider{At: now})
	require.NoError(t, job.Run())

	var remaining []tokens.Token
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
	assert.NotEqual(t, stale.ID, remaining[0].ID)
}

func TestRetentionJob(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	conn := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	kept := testsupport.CreateTestRecord(t, db, domain.ID, testsupport.WithCreated(now.AddDate(0, 0, -5)))
	testsupport.CreateTestRecord(t, db, domain.ID, testsupport.WithCreated(now.AddDate(0, 0, -40)))

	t.Run("disabled keeps everything", func(t *testing.T) {
		job := NewRetentionJob(conn, logger, 0, &timeframe.FixedTimeProvider{At: now})
		assert.False(t, job.Enabled())
		require.NoError(t, job.Run())

		var count int64
		require.NoError(t, db.Model(&records.Record{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("removes records past the retention period", func(t *testing.T) {
		job := NewRetentionJob(conn, logger, 30, &timeframe.FixedTimeProvider{At: now})
		require.NoError(t, job.Run())

		var remaining []records.Record
		require.NoError(t, db.Find(&remaining).Error)
		require.Len(t, remaining, 1)
		assert.Equal(t, kept.ID, remaining[0].ID)
	})
}

type countingJob struct {
	runs  int
	err   error
	panic bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs++
	if j.panic {
		panic("job exploded")
	}
	return j.err
}

func TestExecuteJobSafely(t *testing.T) {
	s := &Scheduler{logger: testsupport.GetLogger()}

	job := &countingJob{err: errors.New("boom")}
	s.executeJobSafely(job)
	assert.Equal(t, 1, job.runs)

	panicking := &countingJob{panic: true}
	assert.NotPanics(t, func() { s.executeJobSafely(panicking) })
	assert.False(t, s.isProcessing)

	s.isProcessing = true
	skipped := &countingJob{}
	s.executeJobSafely(skipped)
	assert.Equal(t, 0, skipped.runs)
}

func TestSchedulerStartStop(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	conn := testsupport.NewTestDBManager(db)
	testsupport.CreateTestToken(t, db, now.Add(-2*time.Hour))

	cfg := testsupport.TestConfig()
	s := NewScheduler(conn, testsupport.GetLogger(), cfg, &timeframe.FixedTimeProvider{At: now})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start())

	s.Stop()
	assert.False(t, s.IsRunning())

	var count int64
	require.NoError(t, db.Model(&tokens.Token{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
