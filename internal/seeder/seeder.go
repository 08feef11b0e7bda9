// Package seeder fills a database with plausible visits for local development.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"ackee/internal/domains"
	"ackee/internal/records"
)

// DefaultTitles are the domains created by Run when they do not exist yet.
var DefaultTitles = []string{"example.com", "blog.example.com"}

// seedWindow is how far back seeded visits reach.
const seedWindow = 30 * 24 * time.Hour

// Seeder generates visits through the same ingestion path the tracker uses.
type Seeder struct {
	DBManager   cartridge.DBManager
	Logger      *slog.Logger
	RecordCount int
	Salt        string
	Now         func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, recordCount int, salt string) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:   dbManager,
		Logger:      logger,
		RecordCount: recordCount,
		Salt:        salt,
		Now:         time.Now,
	}
}

// Run makes sure the default domains exist and seeds each of them.
func (s *Seeder) Run(ctx context.Context) error {
	db := s.DBManager.GetConnection()

	existing, err := domains.List(db)
	if err != nil {
		return err
	}
	byTitle := make(map[string]*domains.Domain, len(existing))
	for i := range existing {
		byTitle[existing[i].Title] = &existing[i]
	}

	for _, title := range DefaultTitles {
		domain, ok := byTitle[title]
		if !ok {
			if domain, err = domains.Create(db, s.Logger, title); err != nil {
				return fmt.Errorf("failed to create domain %s: %w", title, err)
			}
		}
		if err := s.SeedDomain(ctx, domain.ID); err != nil {
			return err
		}
	}
	return nil
}

// SeedDomain stores RecordCount visits for an existing domain.
func (s *Seeder) SeedDomain(ctx context.Context, domainID string) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	domain, err := domains.Get(db, domainID)
	if err != nil {
		var notFound *domains.DomainNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("domain %s not found", domainID)
		}
		return err
	}
	s.Logger.Info("Seeding domain", slog.String("domain", domain.Title), slog.Int("records", s.RecordCount))

	ips := generateIPPool(100)
	created := 0
	for created < s.RecordCount {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := s.seedSession(db, domain, ips[rand.IntN(len(ips))], s.RecordCount-created)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", domain.Title, err)
		}
		created += n
	}

	s.Logger.Info("Domain seeding completed",
		slog.String("domain", domain.Title),
		slog.Int("records", created),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedSession stores one visitor walking through a journey, at most limit pages long.
func (s *Seeder) seedSession(db *gorm.DB, domain *domains.Domain, ip string, limit int) (int, error) {
	journey := journeys[rand.IntN(len(journeys))]
	if len(journey) > limit {
		journey = journey[:limit]
	}
	profile := profiles[rand.IntN(len(profiles))]
	language := languages[rand.IntN(len(languages))]
	referrer := referrers[rand.IntN(len(referrers))]

	at := s.Now().Add(-time.Duration(rand.Int64N(int64(seedWindow))))
	for i, path := range journey {
		attrs := profile.attributes()
		attrs.SiteLocation = ptr("https://" + domain.Title + path)
		attrs.SiteLanguage = ptr(language)
		if i == 0 && referrer != "" {
			attrs.SiteReferrer = ptr(referrer)
		}

		record, err := records.Collect(db, s.Logger, &records.CollectInput{
			DomainID:   domain.ID,
			IPAddress:  ip,
			UserAgent:  profile.userAgent,
			Salt:       s.Salt,
			Attributes: attrs,
			Now:        at,
		})
		if err != nil {
			return i, err
		}

		stay := time.Duration(5+rand.IntN(180)) * time.Second
		if err := records.Touch(db, s.Logger, domain.ID, record.ID, at.Add(stay)); err != nil {
			return i + 1, err
		}
		at = at.Add(stay + time.Duration(rand.IntN(20))*time.Second)
	}
	return len(journey), nil
}

func ptr[T any](v T) *T {
	return &v
}

// generateIPPool returns count distinct random IPv4 addresses.
func generateIPPool(count int) []string {
	seen := make(map[string]bool)
	var ips []string
	for len(ips) < count {
		ip := fmt.Sprintf("%d.%d.%d.%d", rand.IntN(255)+1, rand.IntN(256), rand.IntN(256), rand.IntN(256))
		if !seen[ip] {
			seen[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips
}
