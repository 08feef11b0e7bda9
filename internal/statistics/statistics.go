// Package statistics answers dashboard questions by combining the pipeline builders with the
// records executor.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"ackee/internal/pipeline"
	"ackee/internal/pkg/async"
	"ackee/internal/records"
	"ackee/internal/timeframe"
)

var (
	ErrUnknownStatistic = errors.New("unknown statistic")
	ErrInvalidType      = errors.New("invalid statistic type")
	ErrInvalidSorting   = errors.New("invalid sorting")
)

// Sorting selects between grouped popularity and raw recency.
type Sorting string

const (
	SortingTop    Sorting = "TOP"
	SortingRecent Sorting = "RECENT"
)

// SeriesDays is the length of the daily views and durations series.
const SeriesDays = 14

// overviewWorkers bounds the statistics fetched in parallel for the overview.
const overviewWorkers = 4

// ParseSorting maps a request value onto a Sorting. Empty means TOP.
func ParseSorting(s string) (Sorting, error) {
	switch Sorting(strings.ToUpper(s)) {
	case "", SortingTop:
		return SortingTop, nil
	case SortingRecent:
		return SortingRecent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSorting, s)
	}
}

// Entry is one line of a dimension statistic. Count is absent for recent entries.
type Entry struct {
	ID      string    `json:"id"`
	Count   *int64    `json:"count,omitempty"`
	Created time.Time `json:"created"`
}

// Result is the answer to one statistic. Dimension statistics fill Entries, time based ones
// fill Series.
type Result struct {
	Name    string               `json:"name"`
	Sorting Sorting              `json:"sorting,omitempty"`
	Type    string               `json:"type,omitempty"`
	Entries []Entry              `json:"entries,omitempty"`
	Series  []timeframe.DateStat `json:"series,omitempty"`
}

// Service runs statistics for a domain.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	clock  timeframe.TimeProvider
	pool   *async.Pool
}

func NewService(db *gorm.DB, logger *slog.Logger, clock timeframe.TimeProvider) *Service {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	return &Service{
		db:     db,
		logger: logger,
		clock:  clock,
		pool:   async.NewPool(overviewWorkers),
	}
}

// Names lists every statistic in overview order.
func Names() []string {
	names := make([]string, 0, len(dimensionStats)+2)
	for _, d := range dimensionStats {
		names = append(names, d.name)
	}
	return append(names, ViewsName, DurationsName)
}

// Get computes the named statistic. Empty sorting or type select the defaults.
func (s *Service) Get(ctx context.Context, domainID, name, sorting, typ string) (*Result, error) {
	switch name {
	case ViewsName:
		return s.views(ctx, domainID, typ)
	case DurationsName:
		return s.durations(ctx, domainID, typ)
	}

	stat, ok := findDimensionStat(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatistic, name)
	}

	sort, err := ParseSorting(sorting)
	if err != nil {
		return nil, err
	}
	q, typ, err := stat.query(typ)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries(ctx, domainID, q, sort)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", name, err)
	}

	return &Result{Name: name, Sorting: sort, Type: typ, Entries: entries}, nil
}

func (s *Service) entries(ctx context.Context, domainID string, q dimensionQuery, sort Sorting) ([]Entry, error) {
	var p pipeline.Pipeline
	if sort == SortingRecent {
		p = pipeline.BuildRecent(domainID, q.fields[0], s.clock.Now(time.UTC))
	} else {
		p = pipeline.BuildTop(domainID, q.fields)
	}
	s.logger.Debug("Running aggregation", slog.String("domain_id", domainID), slog.String("pipeline", p.String()))

	rows, err := records.Aggregate(ctx, s.db, p)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		created, _ := row.Time(pipeline.FieldCreated.String())
		entry := Entry{Created: created}

		if sort == SortingRecent {
			v, _ := row.String(pipeline.RecentValueName)
			entry.ID = q.label([]string{v})
		} else {
			values := make([]string, len(q.fields))
			for i, f := range q.fields {
				values[i], _ = row.String(f.String())
			}
			entry.ID = q.label(values)
			if count, ok := row.Int64("count"); ok {
				entry.Count = &count
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Overview computes every statistic with its default sorting and type.
func (s *Service) Overview(ctx context.Context, domainID string) (map[string]*Result, error) {
	names := Names()
	tasks := make([]async.Task, 0, len(names))
	for _, name := range names {
		name := name
		tasks = append(tasks, async.Task{
			Name: name,
			Execute: func(ctx context.Context) (any, error) {
				return s.Get(ctx, domainID, name, "", "")
			},
		})
	}

	results := s.pool.Execute(ctx, tasks)

	overview := make(map[string]*Result, len(names))
	for _, name := range names {
		r, ok := results[name]
		if !ok {
			return nil, fmt.Errorf("missing result for %s", name)
		}
		if r.Err != nil {
			return nil, r.Err
		}
		overview[name] = r.Data.(*Result)
	}
	return overview, nil
}
