package domains

import (
	"errors"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge/cache"
	"gorm.io/gorm"
)

// lookupTTL bounds how long a resolved domain is served from memory.
const lookupTTL = time.Minute

// Lookup resolves domains on the tracking path, where every visit needs its domain checked.
// Unknown ids are cached as a nil domain, so a domain deleted by another process stops
// resolving once its entry expires.
type Lookup struct {
	cache *cache.Cache[string, *Domain]
}

// NewLookup creates a cached domain resolver.
func NewLookup(db *gorm.DB, logger *slog.Logger) *Lookup {
	return NewLookupWithTTL(db, logger, lookupTTL)
}

// NewLookupWithTTL creates a cached domain resolver whose entries expire after ttl.
func NewLookupWithTTL(db *gorm.DB, logger *slog.Logger, ttl time.Duration) *Lookup {
	fetch := func(id string) (*Domain, error) {
		domain, err := Get(db, id)
		var notFound *DomainNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return domain, err
	}
	return &Lookup{
		cache: cache.NewCache[string, *Domain](logger, ttl, fetch),
	}
}

// Get returns the domain, or a DomainNotFoundError.
func (l *Lookup) Get(id string) (*Domain, error) {
	domain, err := l.cache.Get(id)
	if err != nil {
		return nil, err
	}
	if domain == nil {
		return nil, NewDomainNotFoundError(id)
	}
	return domain, nil
}

// Remove drops the cached entry for id. Call it after the domain was changed or deleted.
// The cache fetches under its lock, so a lookup racing the write either finishes before
// Remove runs or reads the committed row.
func (l *Lookup) Remove(id string) {
	l.cache.Remove(id)
}
