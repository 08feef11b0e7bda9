package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("ACKEE_ENV", Test)

	c := GetConfig()
	assert.Equal(t, "ackee", c.AppName)
	assert.Equal(t, "3000", c.GetPort())
	assert.Equal(t, time.Hour, c.TokenTTL())
	assert.Equal(t, 3600, c.GetSessionTimeout())
	assert.Equal(t, 0, c.RecordRetentionDays)
	assert.Equal(t, "storage/ackee-test.db", c.DatabaseDSN())
	assert.Nil(t, c.AllowedOrigins())
	assert.Equal(t, 1, c.GetMaxOpenConns())
	assert.True(t, c.IsTest())
}

func TestGetConfigFromEnvironment(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("ACKEE_ENV", Development)
	t.Setenv("ACKEE_PORT", "8080")
	t.Setenv("ACKEE_USERNAME", "admin")
	t.Setenv("ACKEE_PASSWORD", "secret")
	t.Setenv("ACKEE_TTL", "60000")
	t.Setenv("ACKEE_ALLOW_ORIGIN", "https://a.example.com, https://b.example.com,")
	t.Setenv("ACKEE_RECORD_RETENTION_DAYS", "30")
	t.Setenv("ACKEE_DB_MAX_OPEN_CONNS", "4")

	c := GetConfig()
	assert.Equal(t, "8080", c.GetPort())
	assert.Equal(t, "admin", c.Username)
	assert.Equal(t, "secret", c.Password)
	assert.Equal(t, time.Minute, c.TokenTTL())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.AllowedOrigins())
	assert.Equal(t, 30, c.RecordRetentionDays)
	assert.Equal(t, 4, c.GetMaxOpenConns())
	assert.Equal(t, 5, c.GetMaxIdleConns())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:        Production,
			PrivateKey:         "a-unique-key",
			Username:           "admin",
			Password:           "secret",
			TTLMs:              1000,
			JobIntervalSeconds: 60,
		}
	}

	assert.NoError(t, valid().validate())

	c := valid()
	c.Environment = "staging"
	assert.EqualError(t, c.validate(), "invalid environment: staging")

	c = valid()
	c.PrivateKey = defaultPrivateKey
	assert.Error(t, c.validate())

	c = valid()
	c.Password = ""
	assert.Error(t, c.validate())

	c = valid()
	c.TTLMs = 0
	assert.Error(t, c.validate())

	c = valid()
	c.RecordRetentionDays = -1
	assert.Error(t, c.validate())

	c = valid()
	c.Environment = Development
	c.Username, c.Password = "", ""
	assert.NoError(t, c.validate())
}
