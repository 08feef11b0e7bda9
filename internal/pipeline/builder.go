package pipeline

import (
	"time"

	"ackee/internal/timeframe"
)

const (
	// TopLimit caps the number of groups returned by BuildTop.
	TopLimit = 30
	// RecentLimit caps the number of events returned by BuildRecent.
	RecentLimit = 25
	// RecentWindowDays is how far back BuildRecent looks, on top of the current day.
	RecentWindowDays = 6
	// RecentValueName is the output column holding the projected field value.
	RecentValueName = "value"
)

// BuildTop describes the most recently first-seen distinct combinations of fields for a domain.
//
// Records missing any of the fields are excluded. The created value of each group comes from the
// first record encountered in storage order, which is not necessarily the earliest or latest.
func BuildTop(domainID string, fields []Field) Pipeline {
	return Pipeline{
		Filter{
			Equals:  []Equal{{Field: FieldDomainID, Value: domainID}},
			NotNull: nullExclusions(fields),
		},
		Group{
			Key:        groupKey(fields),
			Aggregates: groupAggregates(),
		},
		Sort{Key: FieldCreated.String(), Direction: Descending},
		Limit{N: TopLimit},
	}
}

// BuildRecent describes the latest individual events carrying a value for field. Values are not
// deduplicated.
func BuildRecent(domainID string, field Field, now time.Time) Pipeline {
	since := RecentSince(now)
	return Pipeline{
		Filter{
			Equals:  []Equal{{Field: FieldDomainID, Value: domainID}},
			NotNull: nullExclusions([]Field{field}),
			Ranges:  []Range{{Field: FieldCreated, Gte: &since}},
		},
		Sort{Key: FieldCreated.String(), Direction: Descending},
		Project{Fields: []Projection{
			{Name: RecentValueName, Source: field},
			{Name: FieldCreated.String(), Source: FieldCreated},
		}},
		Limit{N: RecentLimit},
	}
}

// RecentSince is the inclusive lower bound of the recent window for now, at second granularity.
func RecentSince(now time.Time) time.Time {
	return timeframe.SubDays(now.UTC(), RecentWindowDays).Truncate(time.Second)
}
