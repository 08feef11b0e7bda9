// Package pipeline describes analytics aggregation queries as ordered stage lists.
//
// A Pipeline is plain data. It says what to compute and leaves execution to
// records.Aggregate. Stages must be executed in literal order.
package pipeline

import (
	"encoding/json"
	"time"
)

// Pipeline is an ordered sequence of stages.
type Pipeline []Stage

// Stage is one step of a pipeline. The set of implementations is closed.
type Stage interface {
	stage()
	document() map[string]any
}

// Equal constrains a column to a single value.
type Equal struct {
	Field Field
	Value any
}

// Range constrains a column to an inclusive interval. A nil bound is open.
type Range struct {
	Field Field
	Gte   *time.Time
	Lte   *time.Time
}

// Filter keeps records matching every equality, null exclusion and range.
type Filter struct {
	Equals  []Equal
	NotNull []Field
	Ranges  []Range
}

// Op is a group aggregate operator.
type Op string

const (
	OpCount Op = "count"
	OpFirst Op = "first"
)

// Aggregate computes one output column per group.
type Aggregate struct {
	Name   string
	Op     Op
	Source Field
}

// Group folds records sharing the exact tuple of Key values.
type Group struct {
	Key        []Field
	Aggregates []Aggregate
}

// Direction is a sort order.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Sort orders the stream by one column. Ties keep their previous order.
type Sort struct {
	Key       string
	Direction Direction
}

// Projection renames Source to Name in the output.
type Projection struct {
	Name   string
	Source Field
}

// Project reduces each record to the listed columns.
type Project struct {
	Fields []Projection
}

// Limit keeps the first N records.
type Limit struct {
	N int
}

func (Filter) stage()  {}
func (Group) stage()   {}
func (Sort) stage()    {}
func (Project) stage() {}
func (Limit) stage()   {}

// orderedDoc is a JSON object that keeps insertion order.
type orderedDoc []docEntry

type docEntry struct {
	key   string
	value any
}

func (d orderedDoc) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, e := range d {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func (f Filter) document() map[string]any {
	match := orderedDoc{}
	for _, eq := range f.Equals {
		match = append(match, docEntry{eq.Field.String(), eq.Value})
	}
	for _, field := range f.NotNull {
		match = append(match, docEntry{field.String(), map[string]any{"$ne": nil}})
	}
	for _, r := range f.Ranges {
		bounds := orderedDoc{}
		if r.Gte != nil {
			bounds = append(bounds, docEntry{"$gte", r.Gte.UTC()})
		}
		if r.Lte != nil {
			bounds = append(bounds, docEntry{"$lte", r.Lte.UTC()})
		}
		match = append(match, docEntry{r.Field.String(), bounds})
	}
	return map[string]any{"$match": match}
}

func (g Group) document() map[string]any {
	key := orderedDoc{}
	for _, field := range g.Key {
		key = append(key, docEntry{field.String(), "$" + field.String()})
	}
	group := orderedDoc{{"_id", key}}
	for _, agg := range g.Aggregates {
		switch agg.Op {
		case OpCount:
			group = append(group, docEntry{agg.Name, map[string]any{"$sum": 1}})
		case OpFirst:
			group = append(group, docEntry{agg.Name, map[string]any{"$first": "$" + agg.Source.String()}})
		}
	}
	return map[string]any{"$group": group}
}

func (s Sort) document() map[string]any {
	return map[string]any{"$sort": orderedDoc{{s.Key, int(s.Direction)}}}
}

func (p Project) document() map[string]any {
	project := orderedDoc{}
	for _, f := range p.Fields {
		project = append(project, docEntry{f.Name, "$" + f.Source.String()})
	}
	return map[string]any{"$project": project}
}

func (l Limit) document() map[string]any {
	return map[string]any{"$limit": l.N}
}

// MarshalJSON renders the pipeline as a list of aggregation documents. It is meant for logs and
// tests, not for a document store.
func (p Pipeline) MarshalJSON() ([]byte, error) {
	docs := make([]map[string]any, 0, len(p))
	for _, s := range p {
		docs = append(docs, s.document())
	}
	return json.Marshal(docs)
}

// String returns the JSON rendering, or an empty string if it cannot be produced.
func (p Pipeline) String() string {
	b, err := p.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
