// Package records stores tracked visits and executes aggregation pipelines over them.
package records

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound is returned when a record does not exist for the given domain.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidRecord is returned when tracker input fails validation.
	ErrInvalidRecord = errors.New("invalid record")
)

// deleteBatchSize bounds how many rows a single retention delete touches.
const deleteBatchSize = 1000

// Attributes are the values reported by the tracker for one visit.
type Attributes struct {
	SiteLocation       *string `json:"siteLocation"`
	SiteReferrer       *string `json:"siteReferrer"`
	SiteLanguage       *string `json:"siteLanguage"`
	ScreenWidth        *int64  `json:"screenWidth"`
	ScreenHeight       *int64  `json:"screenHeight"`
	ScreenColorDepth   *int64  `json:"screenColorDepth"`
	DeviceName         *string `json:"deviceName"`
	DeviceManufacturer *string `json:"deviceManufacturer"`
	OSName             *string `json:"osName"`
	OSVersion          *string `json:"osVersion"`
	BrowserName        *string `json:"browserName"`
	BrowserVersion     *string `json:"browserVersion"`
	BrowserWidth       *int64  `json:"browserWidth"`
	BrowserHeight      *int64  `json:"browserHeight"`
}

// CollectInput defines what is needed to store a visit. The domain must already be known to
// exist; IPAddress and UserAgent are only hashed, never stored.
type CollectInput struct {
	DomainID   string
	IPAddress  string
	UserAgent  string
	Salt       string
	Attributes Attributes
	Now        time.Time
}

// BuildClientID derives the identifier that links visits of one client within a UTC day.
// The hash rotates daily so clients cannot be followed across days.
func BuildClientID(domainID, ipAddress, userAgent, salt string, now time.Time) string {
	day := now.UTC().Format("2006-01-02")
	dailySalt := fmt.Sprintf("%s-%s", day, salt)
	data := fmt.Sprintf("%s.%s.%s.%s", dailySalt, domainID, ipAddress, userAgent)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Collect stores a visit. Earlier records of the same client in the same domain are anonymized
// first, so only the latest record keeps its full set of attributes.
func Collect(db *gorm.DB, logger *slog.Logger, input *CollectInput) (*Record, error) {
	if err := validateAttributes(&input.Attributes); err != nil {
		logger.Warn("Rejected record", slog.String("domain_id", input.DomainID), slog.Any("error", err))
		return nil, err
	}

	now := input.Now.UTC()
	if input.Now.IsZero() {
		now = time.Now().UTC()
	}
	clientID := BuildClientID(input.DomainID, input.IPAddress, input.UserAgent, input.Salt, now)

	a := input.Attributes
	record := &Record{
		ID:                 uuid.NewString(),
		DomainID:           input.DomainID,
		ClientID:           &clientID,
		SiteLocation:       a.SiteLocation,
		SiteReferrer:       a.SiteReferrer,
		SiteLanguage:       a.SiteLanguage,
		ScreenWidth:        a.ScreenWidth,
		ScreenHeight:       a.ScreenHeight,
		ScreenColorDepth:   a.ScreenColorDepth,
		DeviceName:         a.DeviceName,
		DeviceManufacturer: a.DeviceManufacturer,
		OSName:             a.OSName,
		OSVersion:          a.OSVersion,
		BrowserName:        a.BrowserName,
		BrowserVersion:     a.BrowserVersion,
		BrowserWidth:       a.BrowserWidth,
		BrowserHeight:      a.BrowserHeight,
		Created:            now,
		Updated:            now,
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := anonymize(tx, input.DomainID, clientID); err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		logger.Error("Failed to store record", slog.String("domain_id", input.DomainID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to store record: %w", err)
	}

	return record, nil
}

func anonymize(tx *gorm.DB, domainID, clientID string) error {
	cleared := make(map[string]any, len(anonymizedColumns))
	for _, col := range anonymizedColumns {
		cleared[col] = nil
	}
	err := tx.Model(&Record{}).
		Where("domain_id = ? AND client_id = ?", domainID, clientID).
		Updates(cleared).Error
	if err != nil {
		return fmt.Errorf("failed to anonymize previous records: %w", err)
	}
	return nil
}

// validateAttributes normalizes blank values to NULL and checks the URLs.
func validateAttributes(a *Attributes) error {
	for _, s := range []**string{
		&a.SiteLocation, &a.SiteReferrer, &a.SiteLanguage,
		&a.DeviceName, &a.DeviceManufacturer,
		&a.OSName, &a.OSVersion,
		&a.BrowserName, &a.BrowserVersion,
	} {
		if *s != nil && strings.TrimSpace(**s) == "" {
			*s = nil
		}
	}

	if a.SiteLocation == nil {
		return fmt.Errorf("%w: siteLocation is required", ErrInvalidRecord)
	}
	if !isAbsoluteURL(*a.SiteLocation) {
		return fmt.Errorf("%w: siteLocation must be an absolute URL", ErrInvalidRecord)
	}
	if a.SiteReferrer != nil && !isAbsoluteURL(*a.SiteReferrer) {
		return fmt.Errorf("%w: siteReferrer must be an absolute URL", ErrInvalidRecord)
	}

	for _, n := range []*int64{
		a.ScreenWidth, a.ScreenHeight, a.ScreenColorDepth,
		a.BrowserWidth, a.BrowserHeight,
	} {
		if n != nil && *n < 0 {
			return fmt.Errorf("%w: sizes must not be negative", ErrInvalidRecord)
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Touch marks a record as still active. Durations are derived from created and updated.
func Touch(db *gorm.DB, logger *slog.Logger, domainID, recordID string, now time.Time) error {
	var affected int64
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Record{}).
			Where("id = ? AND domain_id = ?", recordID, domainID).
			Update("updated", now.UTC())
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteForDomain removes every record of a domain inside tx.
func DeleteForDomain(tx *gorm.DB, domainID string) (int64, error) {
	result := tx.Where("domain_id = ?", domainID).Delete(&Record{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete records for domain %s: %w", domainID, result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOlderThan removes records created before cutoff, in batches to keep write locks short.
func DeleteOlderThan(db *gorm.DB, logger *slog.Logger, cutoff time.Time) (int64, error) {
	cutoff = cutoff.UTC()
	total := int64(0)

	for {
		var affected int64
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			batch := tx.Model(&Record{}).Select("id").Where("created < ?", cutoff).Limit(deleteBatchSize)
			result := tx.Where("id IN (?)", batch).Delete(&Record{})
			affected = result.RowsAffected
			return result.Error
		})
		if err != nil {
			logger.Error("Failed to delete old records",
				slog.Any("error", err),
				slog.Int64("deleted_so_far", total))
			return total, fmt.Errorf("failed to delete old records: %w", err)
		}

		total += affected
		if affected < deleteBatchSize {
			break
		}
	}

	return total, nil
}

// Get loads a record by id within a domain.
func Get(db *gorm.DB, domainID, recordID string) (*Record, error) {
	var record Record
	err := db.Where("id = ? AND domain_id = ?", recordID, domainID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}
