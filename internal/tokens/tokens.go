// Package tokens issues and validates the session tokens used by the dashboard API.
package tokens

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned when the username or password does not match.
	ErrInvalidCredentials = errors.New("username or password incorrect")
	// ErrTokenInvalid is returned for unknown or expired tokens.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrNoCredentials is returned when the server has no login configured.
	ErrNoCredentials = errors.New("username and password must be configured")
)

// Token is an issued session. It stays valid while it keeps being used within the TTL.
type Token struct {
	ID      string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null;index" json:"updated"`
}

func (Token) TableName() string {
	return "tokens"
}

// Credentials is the single login accepted by the server. Only the password hash is retained.
type Credentials struct {
	username     string
	passwordHash string
}

// NewCredentials hashes the configured password once at startup.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" || password == "" {
		return nil, ErrNoCredentials
	}
	hash, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &Credentials{username: username, passwordHash: string(hash)}, nil
}

// NewCredentialsFromHash accepts a bcrypt hash computed elsewhere.
func NewCredentialsFromHash(username, passwordHash string) (*Credentials, error) {
	if username == "" || passwordHash == "" {
		return nil, ErrNoCredentials
	}
	return &Credentials{username: username, passwordHash: passwordHash}, nil
}

// Check reports whether username and password match. The password hash is always verified so
// a wrong username takes as long as a wrong password.
func (c *Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordOK := crypto.VerifyPassword(c.passwordHash, password)
	return userOK && passwordOK
}

// Create issues a new token when the credentials match.
func Create(db *gorm.DB, logger *slog.Logger, creds *Credentials, username, password string, now time.Time) (*Token, error) {
	if creds == nil || !creds.Check(username, password) {
		logger.Debug("Invalid login attempt", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	now = now.UTC()
	token := &Token{
		ID:      uuid.NewString(),
		Created: now,
		Updated: now,
	}
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// Validate checks that a token exists and has been used within ttl, then refreshes it.
func Validate(db *gorm.DB, logger *slog.Logger, id string, ttl time.Duration, now time.Time) (*Token, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTokenInvalid
	}

	var token Token
	if err := db.Where("id = ?", id).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	now = now.UTC()
	if now.Sub(token.Updated) >= ttl {
		return nil, ErrTokenInvalid
	}

	token.Updated = now
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Token{}).Where("id = ?", id).Update("updated", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return &token, nil
}

// Delete removes a token. Deleting an unknown token is not an error.
func Delete(db *gorm.DB, logger *slog.Logger, id string) error {
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Delete(&Token{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that have not been used within ttl.
func DeleteExpired(db *gorm.DB, logger *slog.Logger, ttl time.Duration, now time.Time) (int64, error) {
	cutoff := now.UTC().Add(-ttl)
	var removed int64
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Where("updated <= ?", cutoff).Delete(&Token{})
		removed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return removed, nil
}
