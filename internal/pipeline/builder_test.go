package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTopShape(t *testing.T) {
	p := BuildTop("domain-1", []Field{FieldOSName, FieldOSVersion})
	require.Len(t, p, 4)

	filter, ok := p[0].(Filter)
	require.True(t, ok, "first stage should be a filter")
	assert.Equal(t, []Equal{{Field: FieldDomainID, Value: "domain-1"}}, filter.Equals)
	assert.Equal(t, []Field{FieldOSName, FieldOSVersion}, filter.NotNull)
	assert.Empty(t, filter.Ranges)

	group, ok := p[1].(Group)
	require.True(t, ok, "second stage should be a group")
	assert.Equal(t, []Field{FieldOSName, FieldOSVersion}, group.Key)
	assert.Equal(t, []Aggregate{
		{Name: "count", Op: OpCount},
		{Name: "created", Op: OpFirst, Source: FieldCreated},
	}, group.Aggregates)

	assert.Equal(t, Sort{Key: "created", Direction: Descending}, p[2])
	assert.Equal(t, Limit{N: 30}, p[3])
}

func TestBuildTopZeroFields(t *testing.T) {
	p := BuildTop("domain-1", nil)

	filter := p[0].(Filter)
	assert.Empty(t, filter.NotNull)
	assert.Len(t, filter.Equals, 1)

	group := p[1].(Group)
	assert.Empty(t, group.Key)
	assert.Len(t, group.Aggregates, 2)
}

func TestBuildTopDoesNotAliasInput(t *testing.T) {
	fields := []Field{FieldBrowserName, FieldBrowserVersion}
	p := BuildTop("domain-1", fields)

	fields[0] = FieldSiteLocation

	assert.Equal(t, FieldBrowserName, p[0].(Filter).NotNull[0])
	assert.Equal(t, FieldBrowserName, p[1].(Group).Key[0])
}

func TestBuildTopKeepsDuplicates(t *testing.T) {
	p := BuildTop("domain-1", []Field{FieldOSName, FieldOSName})
	assert.Equal(t, []Field{FieldOSName, FieldOSName}, p[1].(Group).Key)
}

func TestBuildRecentShape(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 30, 45, 500_000_000, time.UTC)
	p := BuildRecent("domain-1", FieldSiteReferrer, now)
	require.Len(t, p, 4)

	filter, ok := p[0].(Filter)
	require.True(t, ok)
	assert.Equal(t, []Equal{{Field: FieldDomainID, Value: "domain-1"}}, filter.Equals)
	assert.Equal(t, []Field{FieldSiteReferrer}, filter.NotNull)
	require.Len(t, filter.Ranges, 1)
	assert.Equal(t, FieldCreated, filter.Ranges[0].Field)
	require.NotNil(t, filter.Ranges[0].Gte)
	assert.Nil(t, filter.Ranges[0].Lte)
	assert.Equal(t, time.Date(2024, 3, 4, 12, 30, 45, 0, time.UTC), *filter.Ranges[0].Gte)

	assert.Equal(t, Sort{Key: "created", Direction: Descending}, p[1])
	assert.Equal(t, Project{Fields: []Projection{
		{Name: "value", Source: FieldSiteReferrer},
		{Name: "created", Source: FieldCreated},
	}}, p[2])
	assert.Equal(t, Limit{N: 25}, p[3])
}

func TestRecentSinceNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)

	since := RecentSince(now)
	assert.Equal(t, time.UTC, since.Location())
	assert.Equal(t, time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC), since)
}

func TestBuildersAreDeterministic(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	fields := []Field{FieldDeviceManufacturer, FieldDeviceName}

	assert.Equal(t, BuildTop("d", fields), BuildTop("d", fields))
	assert.Equal(t, BuildRecent("d", FieldSiteLocation, now), BuildRecent("d", FieldSiteLocation, now))
	assert.Equal(t, BuildTop("d", fields).String(), BuildTop("d", fields).String())
}

func TestPipelineJSON(t *testing.T) {
	p := BuildTop("domain-1", []Field{FieldOSName, FieldOSVersion})

	expected := `[
		{"$match": {"domainId": "domain-1", "osName": {"$ne": null}, "osVersion": {"$ne": null}}},
		{"$group": {"_id": {"osName": "$osName", "osVersion": "$osVersion"}, "count": {"$sum": 1}, "created": {"$first": "$created"}}},
		{"$sort": {"created": -1}},
		{"$limit": 30}
	]`
	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, expected, string(b))
}

func TestRecentPipelineJSON(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	p := BuildRecent("domain-1", FieldSiteReferrer, now)

	expected := `[
		{"$match": {"domainId": "domain-1", "siteReferrer": {"$ne": null}, "created": {"$gte": "2024-03-04T12:00:00Z"}}},
		{"$sort": {"created": -1}},
		{"$project": {"value": "$siteReferrer", "created": "$created"}},
		{"$limit": 25}
	]`
	assert.JSONEq(t, expected, p.String())
}

func TestJSONKeepsKeyOrder(t *testing.T) {
	p := BuildTop("d", []Field{FieldOSVersion, FieldOSName})
	assert.Contains(t, p.String(), `"_id":{"osVersion":"$osVersion","osName":"$osName"}`)
}
