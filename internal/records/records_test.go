package records_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ackee/internal/records"
	"ackee/internal/testsupport"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleAttributes() records.Attributes {
	return records.Attributes{
		SiteLocation:       ptr("https://example.com/about"),
		SiteReferrer:       ptr("https://news.ycombinator.com/"),
		SiteLanguage:       ptr("en"),
		ScreenWidth:        ptr(int64(1920)),
		ScreenHeight:       ptr(int64(1080)),
		ScreenColorDepth:   ptr(int64(24)),
		DeviceName:         ptr("iPhone"),
		DeviceManufacturer: ptr("Apple"),
		OSName:             ptr("iOS"),
		OSVersion:          ptr("17.2"),
		BrowserName:        ptr("Safari"),
		BrowserVersion:     ptr("17.0"),
		BrowserWidth:       ptr(int64(390)),
		BrowserHeight:      ptr(int64(844)),
	}
}

func TestBuildClientID(t *testing.T) {
	day := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)

	id := records.BuildClientID("d1", "1.2.3.4", "UA", "salt", day)
	assert.Len(t, id, 64)
	assert.Equal(t, id, records.BuildClientID("d1", "1.2.3.4", "UA", "salt", day.Add(20*time.Hour)))
	assert.NotEqual(t, id, records.BuildClientID("d1", "1.2.3.4", "UA", "salt", day.Add(24*time.Hour)))
	assert.NotEqual(t, id, records.BuildClientID("d2", "1.2.3.4", "UA", "salt", day))
	assert.NotEqual(t, id, records.BuildClientID("d1", "1.2.3.4", "UA", "other", day))
}

func TestCollectStoresRecord(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	record, err := records.Collect(db, logger, &records.CollectInput{
		DomainID:   domain.ID,
		IPAddress:  "1.2.3.4",
		UserAgent:  "Mozilla/5.0",
		Salt:       "salt",
		Attributes: sampleAttributes(),
		Now:        now,
	})
	require.NoError(t, err)

	stored, err := records.Get(db, domain.ID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/about", *stored.SiteLocation)
	assert.Equal(t, "iOS", *stored.OSName)
	assert.Equal(t, int64(1920), *stored.ScreenWidth)
	require.NotNil(t, stored.ClientID)
	assert.Equal(t, records.BuildClientID(domain.ID, "1.2.3.4", "Mozilla/5.0", "salt", now), *stored.ClientID)
	assert.True(t, stored.Created.Equal(now))
	assert.True(t, stored.Updated.Equal(now))
}

func TestCollectAnonymizesPreviousRecords(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	input := func(at time.Time, ip string) *records.CollectInput {
		return &records.CollectInput{
			DomainID:   domain.ID,
			IPAddress:  ip,
			UserAgent:  "Mozilla/5.0",
			Salt:       "salt",
			Attributes: sampleAttributes(),
			Now:        at,
		}
	}

	first, err := records.Collect(db, logger, input(now, "1.2.3.4"))
	require.NoError(t, err)
	stranger, err := records.Collect(db, logger, input(now, "5.6.7.8"))
	require.NoError(t, err)
	second, err := records.Collect(db, logger, input(now.Add(time.Minute), "1.2.3.4"))
	require.NoError(t, err)

	old, err := records.Get(db, domain.ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, old.ClientID)
	assert.Nil(t, old.SiteLanguage)
	assert.Nil(t, old.ScreenWidth)
	assert.Nil(t, old.OSName)
	assert.Nil(t, old.BrowserHeight)
	require.NotNil(t, old.SiteLocation)
	require.NotNil(t, old.SiteReferrer)

	latest, err := records.Get(db, domain.ID, second.ID)
	require.NoError(t, err)
	assert.NotNil(t, latest.ClientID)
	assert.NotNil(t, latest.OSName)

	untouched, err := records.Get(db, domain.ID, stranger.ID)
	require.NoError(t, err)
	assert.NotNil(t, untouched.OSName)
}

func TestCollectValidatesAttributes(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	cases := map[string]func(a *records.Attributes){
		"missing location":  func(a *records.Attributes) { a.SiteLocation = nil },
		"blank location":    func(a *records.Attributes) { a.SiteLocation = ptr("  ") },
		"relative location": func(a *records.Attributes) { a.SiteLocation = ptr("/about") },
		"bad referrer":      func(a *records.Attributes) { a.SiteReferrer = ptr("not a url") },
		"negative size":     func(a *records.Attributes) { a.ScreenWidth = ptr(int64(-1)) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			attrs := sampleAttributes()
			mutate(&attrs)
			_, err := records.Collect(db, logger, &records.CollectInput{DomainID: domain.ID, Attributes: attrs})
			assert.ErrorIs(t, err, records.ErrInvalidRecord)
		})
	}
}

func TestCollectNormalizesBlankValues(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	attrs := sampleAttributes()
	attrs.SiteReferrer = ptr("")
	attrs.OSVersion = ptr(" ")

	record, err := records.Collect(db, logger, &records.CollectInput{DomainID: domain.ID, Attributes: attrs})
	require.NoError(t, err)

	stored, err := records.Get(db, domain.ID, record.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SiteReferrer)
	assert.Nil(t, stored.OSVersion)
}

func TestTouch(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")
	other := testsupport.CreateTestDomain(t, db, "other.com")

	record := testsupport.CreateTestRecord(t, db, domain.ID, testsupport.WithCreated(base))

	later := base.Add(90 * time.Second)
	require.NoError(t, records.Touch(db, logger, domain.ID, record.ID, later))

	stored, err := records.Get(db, domain.ID, record.ID)
	require.NoError(t, err)
	assert.True(t, stored.Updated.Equal(later))
	assert.True(t, stored.Created.Equal(base))

	assert.ErrorIs(t, records.Touch(db, logger, other.ID, record.ID, later), records.ErrRecordNotFound)
	assert.ErrorIs(t, records.Touch(db, logger, domain.ID, "missing", later), records.ErrRecordNotFound)
}

func TestDeleteOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	domain := testsupport.CreateTestDomain(t, db, "example.com")

	for i := 0; i < 5; i++ {
		testsupport.CreateTestRecord(t, db, domain.ID, testsupport.WithCreated(base.AddDate(0, 0, -10-i)))
	}
	kept := testsupport.CreateTestRecord(t, db, domain.ID, testsupport.WithCreated(base))

	deleted, err := records.DeleteOlderThan(db, logger, base.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	var remaining []records.Record
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}

func TestDeleteForDomain(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	domain := testsupport.CreateTestDomain(t, db, "example.com")
	other := testsupport.CreateTestDomain(t, db, "other.com")

	testsupport.CreateTestRecord(t, db, domain.ID)
	testsupport.CreateTestRecord(t, db, domain.ID)
	testsupport.CreateTestRecord(t, db, other.ID)

	deleted, err := records.DeleteForDomain(db, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var count int64
	require.NoError(t, db.Model(&records.Record{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRowAccessors(t *testing.T) {
	row := records.Row{
		"s":    "text",
		"b":    []byte("bytes"),
		"n":    int64(42),
		"f":    float64(1.5),
		"t":    time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
		"ts":   "2024-01-02 03:04:05.5+00:00",
		"null": nil,
	}

	s, ok := row.String("s")
	assert.True(t, ok)
	assert.Equal(t, "text", s)

	s, _ = row.String("b")
	assert.Equal(t, "bytes", s)

	s, _ = row.String("n")
	assert.Equal(t, "42", s)

	_, ok = row.String("null")
	assert.False(t, ok)

	n, ok := row.Int64("n")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = row.Int64("s")
	assert.False(t, ok)

	tm, ok := row.Time("t")
	assert.True(t, ok)
	assert.Equal(t, time.UTC, tm.Location())
	assert.Equal(t, 2, tm.Hour())

	tm, ok = row.Time("ts")
	assert.True(t, ok)
	assert.True(t, tm.Equal(time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.UTC)))

	_, ok = row.Time("missing")
	assert.False(t, ok)
}
