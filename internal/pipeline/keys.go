package pipeline

// nullExclusions lists the fields that must be non-null, in input order.
func nullExclusions(fields []Field) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// groupKey returns the group key shape. Names are kept verbatim and in input order.
func groupKey(fields []Field) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// groupAggregates are computed by every top grouping.
func groupAggregates() []Aggregate {
	return []Aggregate{
		{Name: "count", Op: OpCount},
		{Name: FieldCreated.String(), Op: OpFirst, Source: FieldCreated},
	}
}
