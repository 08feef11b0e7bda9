package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ackee/internal/domains"
	"ackee/internal/records"
	"ackee/internal/testsupport"
)

func TestSeedDomain(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewSeeder(dbManager, logger, 25, "salt")
	s.Now = func() time.Time { return now }

	require.NoError(t, s.SeedDomain(context.Background(), domain.ID))

	var seeded []records.Record
	require.NoError(t, db.Where("domain_id = ?", domain.ID).Find(&seeded).Error)
	require.Len(t, seeded, 25)
	for _, r := range seeded {
		require.NotNil(t, r.SiteLocation)
		assert.Contains(t, *r.SiteLocation, "https://example.com/")
		assert.True(t, r.Updated.After(r.Created))
		assert.False(t, r.Created.After(now.Add(time.Hour)))
	}
}

func TestSeedDomainUnknown(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	err := NewSeeder(dbManager, logger, 1, "salt").SeedDomain(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestRunCreatesDefaultDomains(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CreateTestDomain(t, db, DefaultTitles[0])

	require.NoError(t, NewSeeder(dbManager, logger, 3, "salt").Run(context.Background()))

	list, err := domains.List(db)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultTitles))

	var count int64
	require.NoError(t, db.Model(&records.Record{}).Count(&count).Error)
	assert.Equal(t, int64(3*len(DefaultTitles)), count)
}

func TestSeedDomainStopsOnCancel(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	domain := testsupport.CreateTestDomain(t, dbManager.GetConnection(), "example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSeeder(dbManager, logger, 10, "salt").SeedDomain(ctx, domain.ID)
	assert.ErrorIs(t, err, context.Canceled)
}
