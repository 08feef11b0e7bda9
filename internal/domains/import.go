package domains

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ImportFile is the YAML layout accepted by Import:
//
//	domains:
//	  - title: example.com
//	  - title: blog.example.com
type ImportFile struct {
	Domains []struct {
		Title string `yaml:"title"`
	} `yaml:"domains"`
}

// Import creates the domains listed in r. Titles that already exist are skipped, so an import
// can be repeated. It returns the domains it created.
func Import(db *gorm.DB, logger *slog.Logger, r io.Reader) ([]Domain, error) {
	var file ImportFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse domain file: %w", err)
	}

	existing, err := List(db)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.Title] = true
	}

	var created []Domain
	for i, entry := range file.Domains {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			return created, fmt.Errorf("entry %d: %w", i+1, ErrInvalidTitle)
		}
		if seen[title] {
			logger.Info("Skipping existing domain", slog.String("title", title))
			continue
		}

		domain, err := Create(db, logger, title)
		if err != nil {
			return created, err
		}
		seen[title] = true
		created = append(created, *domain)
	}
	return created, nil
}
