package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ackee/internal/config"
	"ackee/internal/database"
	"ackee/internal/domains"
	"ackee/internal/records"
	"ackee/internal/tokens"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a test database with all models migrated.
// Uses a named in-memory database with cache=shared to allow multiple connections
// to share the same database within a test. Caches the database by test name
// so multiple calls within the same test return the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Use root test name for caching so subtests share their parent's database
	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	// A single connection avoids shared-cache table locks when tests query concurrently
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tableNames {
			tx.Exec("DELETE FROM " + table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// TestConfig returns a configuration suitable for handlers under test. It does not touch the
// process wide configuration.
func TestConfig() *config.Config {
	return &config.Config{
		AppName:            "ackee",
		AppPort:            "3000",
		Environment:        config.Test,
		LogLevel:           config.LogLevelError,
		PrivateKey:         "test-private-key",
		Username:           "admin",
		Password:           "123456",
		TTLMs:              3600000,
		JobIntervalSeconds: 60,
	}
}

// TestCredentials builds login credentials with the cheapest bcrypt cost to keep tests fast.
func TestCredentials(t *testing.T, username, password string) *tokens.Credentials {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := tokens.NewCredentialsFromHash(username, string(hash))
	require.NoError(t, err)
	return creds
}

// CreateTestDomain creates a domain in the database
func CreateTestDomain(t *testing.T, db *gorm.DB, title string) *domains.Domain {
	t.Helper()

	domain, err := domains.Create(db, GetLogger(), title)
	require.NoError(t, err)
	return domain
}

// CreateTestToken stores a token last used at updated.
func CreateTestToken(t *testing.T, db *gorm.DB, updated time.Time) *tokens.Token {
	t.Helper()

	token := &tokens.Token{
		ID:      uuid.NewString(),
		Created: updated.UTC(),
		Updated: updated.UTC(),
	}
	require.NoError(t, db.Create(token).Error)
	return token
}

// RecordOption customizes a record built by CreateTestRecord.
type RecordOption func(*records.Record)

// WithCreated sets the created timestamp, and updated to the same instant.
func WithCreated(at time.Time) RecordOption {
	return func(r *records.Record) {
		r.Created = at.UTC()
		r.Updated = at.UTC()
	}
}

// WithUpdated sets the updated timestamp.
func WithUpdated(at time.Time) RecordOption {
	return func(r *records.Record) {
		r.Updated = at.UTC()
	}
}

// WithClientID sets the client identifier.
func WithClientID(id string) RecordOption {
	return func(r *records.Record) {
		r.ClientID = &id
	}
}

// WithString sets a text dimension by its field name.
func WithString(field, value string) RecordOption {
	return func(r *records.Record) {
		v := value
		switch field {
		case "siteLocation":
			r.SiteLocation = &v
		case "siteReferrer":
			r.SiteReferrer = &v
		case "siteLanguage":
			r.SiteLanguage = &v
		case "deviceName":
			r.DeviceName = &v
		case "deviceManufacturer":
			r.DeviceManufacturer = &v
		case "osName":
			r.OSName = &v
		case "osVersion":
			r.OSVersion = &v
		case "browserName":
			r.BrowserName = &v
		case "browserVersion":
			r.BrowserVersion = &v
		default:
			panic("testsupport: unknown text field " + field)
		}
	}
}

// WithInt sets a numeric dimension by its field name.
func WithInt(field string, value int64) RecordOption {
	return func(r *records.Record) {
		v := value
		switch field {
		case "screenWidth":
			r.ScreenWidth = &v
		case "screenHeight":
			r.ScreenHeight = &v
		case "screenColorDepth":
			r.ScreenColorDepth = &v
		case "browserWidth":
			r.BrowserWidth = &v
		case "browserHeight":
			r.BrowserHeight = &v
		default:
			panic("testsupport: unknown numeric field " + field)
		}
	}
}

// CreateTestRecord inserts a record directly, bypassing Collect.
func CreateTestRecord(t *testing.T, db *gorm.DB, domainID string, opts ...RecordOption) *records.Record {
	t.Helper()

	now := time.Now().UTC()
	record := &records.Record{
		ID:       uuid.NewString(),
		DomainID: domainID,
		Created:  now,
		Updated:  now,
	}
	for _, opt := range opts {
		opt(record)
	}
	require.NoError(t, db.Create(record).Error)
	return record
}
