package statistics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ackee/internal/timeframe"
)

const (
	ViewsName     = "views"
	DurationsName = "durations"

	TypeTotal  = "TOTAL"
	TypeUnique = "UNIQUE"
)

// seriesStart returns now and midnight UTC of the oldest day in the series window.
func (s *Service) seriesStart() (time.Time, time.Time) {
	now := s.clock.Now(time.UTC)
	return now, timeframe.SubDays(timeframe.StartOfDay(now), SeriesDays-1)
}

func (s *Service) views(ctx context.Context, domainID, typ string) (*Result, error) {
	typ = strings.ToUpper(typ)
	if typ == "" {
		typ = TypeUnique
	}

	var counted string
	switch typ {
	case TypeTotal:
		counted = "COUNT(*)"
	case TypeUnique:
		counted = "COUNT(DISTINCT client_id)"
	default:
		return nil, fmt.Errorf("%w: %q for %s", ErrInvalidType, typ, ViewsName)
	}

	now, from := s.seriesStart()
	query := fmt.Sprintf(`
		SELECT
			strftime('%%Y-%%m-%%d', created) AS date,
			%s AS count
		FROM
			records
		WHERE
			domain_id = ? AND created >= ?
		GROUP BY
			date
		ORDER BY
			date ASC
	`, counted)

	var raw []timeframe.DateStat
	if err := s.db.WithContext(ctx).Raw(query, domainID, from).Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("error fetching views: %w", err)
	}

	return &Result{
		Name:   ViewsName,
		Type:   typ,
		Series: timeframe.BuildDailySeries(now, SeriesDays, raw),
	}, nil
}

// durations averages how long visits stayed active, in seconds, per day. Visits that were
// never updated after being created are left out.
func (s *Service) durations(ctx context.Context, domainID, typ string) (*Result, error) {
	if typ != "" {
		return nil, fmt.Errorf("%w: %q for %s", ErrInvalidType, typ, DurationsName)
	}

	now, from := s.seriesStart()
	query := `
		SELECT
			strftime('%Y-%m-%d', created) AS date,
			AVG((julianday(updated) - julianday(created)) * 86400.0) AS count
		FROM
			records
		WHERE
			domain_id = ? AND created >= ? AND updated > created
		GROUP BY
			date
		ORDER BY
			date ASC
	`

	var raw []timeframe.DateStat
	if err := s.db.WithContext(ctx).Raw(query, domainID, from).Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("error fetching durations: %w", err)
	}

	return &Result{
		Name:   DurationsName,
		Series: timeframe.BuildDailySeries(now, SeriesDays, raw),
	}, nil
}
