package domains

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ackee/internal/records"
)

// ErrInvalidTitle is returned when a domain title is blank.
var ErrInvalidTitle = errors.New("domain title must not be empty")

// DomainNotFoundError represents an error when a domain is not found
type DomainNotFoundError struct {
	ID string
}

func (e *DomainNotFoundError) Error() string {
	return fmt.Sprintf("domain not found: %s", e.ID)
}

// NewDomainNotFoundError creates a new DomainNotFoundError
func NewDomainNotFoundError(id string) *DomainNotFoundError {
	return &DomainNotFoundError{ID: id}
}

// Domain is a tracked site.
type Domain struct {
	ID      string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Title   string    `gorm:"column:title;not null" json:"title"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`
}

func (Domain) TableName() string {
	return "domains"
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// Create stores a new domain with the given title.
func Create(db *gorm.DB, logger *slog.Logger, title string) (*Domain, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	domain := &Domain{
		ID:      uuid.NewString(),
		Title:   title,
		Created: now,
		Updated: now,
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(domain).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	logger.Info("Domain created", slog.String("domain_id", domain.ID), slog.String("title", domain.Title))
	return domain, nil
}

// List returns every domain ordered by title.
func List(db *gorm.DB) ([]Domain, error) {
	domains := []Domain{}
	if err := db.Order("title ASC").Order("created ASC").Find(&domains).Error; err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

// Get retrieves a domain by id.
func Get(db *gorm.DB, id string) (*Domain, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, NewDomainNotFoundError(id)
	}

	var domain Domain
	if err := db.Where("id = ?", id).First(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying domain: %w", err)
	}
	return &domain, nil
}

// Update changes the title of a domain.
func Update(db *gorm.DB, logger *slog.Logger, id, title string) (*Domain, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	domain, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	domain.Title = title
	domain.Updated = time.Now().UTC()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Domain{}).Where("id = ?", id).
			Updates(map[string]any{"title": domain.Title, "updated": domain.Updated}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update domain: %w", err)
	}
	return domain, nil
}

// Delete removes a domain together with all of its records.
func Delete(db *gorm.DB, logger *slog.Logger, id string) error {
	if _, err := Get(db, id); err != nil {
		return err
	}

	var removed int64
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		n, err := records.DeleteForDomain(tx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.Where("id = ?", id).Delete(&Domain{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}

	logger.Info("Domain deleted", slog.String("domain_id", id), slog.Int64("records_deleted", removed))
	return nil
}
