package records

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"ackee/internal/pipeline"
)

// ErrInvalidPipeline is returned when a pipeline references columns that are not visible at
// its stage, uses an illegal identifier, or carries an unusable stage.
var ErrInvalidPipeline = errors.New("invalid pipeline")

const (
	ordColumn   = "_ord"
	countColumn = "_cnt"
	rankColumn  = "_rn"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reserved = map[string]bool{
	ordColumn:   true,
	countColumn: true,
	rankColumn:  true,
}

// baseFields are the columns every pipeline starts with, in select order.
var baseFields = append([]pipeline.Field{pipeline.FieldDomainID, pipeline.FieldCreated}, pipeline.Dimensions()...)

// query is a stage compiled so far. cols are the names visible to the next stage.
type query struct {
	sql  string
	args []any
	cols []string
	seq  int
}

func (q *query) has(name string) bool {
	for _, c := range q.cols {
		if c == name {
			return true
		}
	}
	return false
}

func (q *query) alias() string {
	q.seq++
	return fmt.Sprintf("s%d", q.seq)
}

func quote(name string) string {
	return `"` + name + `"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPipeline, fmt.Sprintf(format, args...))
}

// Compile turns a pipeline into one SQL statement over the records table. Each stage wraps the
// previous one as a subquery so stages run in literal order.
func Compile(p pipeline.Pipeline) (string, []any, error) {
	q := baseQuery()

	for i, s := range p {
		var err error
		switch st := s.(type) {
		case pipeline.Filter:
			err = q.filter(st)
		case pipeline.Group:
			err = q.group(st)
		case pipeline.Sort:
			err = q.sort(st)
		case pipeline.Project:
			err = q.project(st)
		case pipeline.Limit:
			err = q.limit(st)
		default:
			err = invalid("unsupported stage %T", s)
		}
		if err != nil {
			return "", nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}

	selected := make([]string, len(q.cols))
	for i, c := range q.cols {
		selected[i] = quote(c)
	}
	sql := fmt.Sprintf("SELECT %s FROM (%s) AS result ORDER BY %s",
		strings.Join(selected, ", "), q.sql, quote(ordColumn))
	return sql, q.args, nil
}

func baseQuery() *query {
	selected := []string{"rowid AS " + quote(ordColumn)}
	cols := make([]string, 0, len(baseFields))
	for _, f := range baseFields {
		selected = append(selected, fmt.Sprintf("%s AS %s", quote(columns[f]), quote(f.String())))
		cols = append(cols, f.String())
	}
	return &query{
		sql:  fmt.Sprintf("SELECT %s FROM %s", strings.Join(selected, ", "), quote(Record{}.TableName())),
		cols: cols,
	}
}

func (q *query) column(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", invalid("illegal identifier %q", name)
	}
	if !q.has(name) {
		return "", invalid("unknown column %q", name)
	}
	return quote(name), nil
}

func (q *query) outputName(name string, seen map[string]bool) error {
	if !identifierPattern.MatchString(name) || reserved[name] {
		return invalid("illegal output name %q", name)
	}
	if seen[name] {
		return invalid("duplicate output name %q", name)
	}
	seen[name] = true
	return nil
}

func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

func (q *query) filter(f pipeline.Filter) error {
	var conds []string
	var args []any

	for _, eq := range f.Equals {
		col, err := q.column(eq.Field.String())
		if err != nil {
			return err
		}
		if eq.Value == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, col+" = ?")
		args = append(args, bindValue(eq.Value))
	}
	for _, field := range f.NotNull {
		col, err := q.column(field.String())
		if err != nil {
			return err
		}
		conds = append(conds, col+" IS NOT NULL")
	}
	for _, r := range f.Ranges {
		col, err := q.column(r.Field.String())
		if err != nil {
			return err
		}
		if r.Gte != nil {
			conds = append(conds, col+" >= ?")
			args = append(args, r.Gte.UTC())
		}
		if r.Lte != nil {
			conds = append(conds, col+" <= ?")
			args = append(args, r.Lte.UTC())
		}
	}

	sql := fmt.Sprintf("SELECT * FROM (%s) AS %s", q.sql, q.alias())
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	q.sql = sql
	q.args = append(q.args, args...)
	return nil
}

func (q *query) group(g pipeline.Group) error {
	seen := map[string]bool{}
	var keys []string
	for _, field := range g.Key {
		col, err := q.column(field.String())
		if err != nil {
			return err
		}
		// Repeating a key field does not change the grouping.
		if seen[field.String()] {
			continue
		}
		seen[field.String()] = true
		keys = append(keys, col)
	}

	selected := append([]string{}, keys...)
	cols := make([]string, 0, len(keys)+len(g.Aggregates))
	for _, k := range keys {
		cols = append(cols, strings.Trim(k, `"`))
	}

	for _, agg := range g.Aggregates {
		if err := q.outputName(agg.Name, seen); err != nil {
			return err
		}
		switch agg.Op {
		case pipeline.OpCount:
			selected = append(selected, fmt.Sprintf("%s AS %s", quote(countColumn), quote(agg.Name)))
		case pipeline.OpFirst:
			src, err := q.column(agg.Source.String())
			if err != nil {
				return err
			}
			selected = append(selected, fmt.Sprintf("%s AS %s", src, quote(agg.Name)))
		default:
			return invalid("unsupported aggregate %q", agg.Op)
		}
		cols = append(cols, agg.Name)
	}
	selected = append(selected, quote(ordColumn))

	partition := ""
	if len(keys) > 0 {
		partition = "PARTITION BY " + strings.Join(keys, ", ") + " "
	}
	inner := fmt.Sprintf(
		"SELECT *, COUNT(*) OVER (%s) AS %s, ROW_NUMBER() OVER (%sORDER BY %s) AS %s FROM (%s) AS %s",
		strings.TrimSpace(partition), quote(countColumn),
		partition, quote(ordColumn), quote(rankColumn),
		q.sql, q.alias(),
	)
	q.sql = fmt.Sprintf("SELECT %s FROM (%s) AS %s WHERE %s = 1",
		strings.Join(selected, ", "), inner, q.alias(), quote(rankColumn))
	q.cols = cols
	return nil
}

func (q *query) sort(s pipeline.Sort) error {
	key, err := q.column(s.Key)
	if err != nil {
		return err
	}
	dir := "ASC"
	switch s.Direction {
	case pipeline.Ascending:
	case pipeline.Descending:
		dir = "DESC"
	default:
		return invalid("unsupported sort direction %d", s.Direction)
	}

	alias := q.alias()
	selected := make([]string, 0, len(q.cols)+1)
	for _, c := range q.cols {
		selected = append(selected, alias+"."+quote(c))
	}
	// Ties fall back to the previous order, which keeps the sort stable.
	selected = append(selected, fmt.Sprintf("ROW_NUMBER() OVER (ORDER BY %s.%s %s, %s.%s) AS %s",
		alias, key, dir, alias, quote(ordColumn), quote(ordColumn)))

	q.sql = fmt.Sprintf("SELECT %s FROM (%s) AS %s", strings.Join(selected, ", "), q.sql, alias)
	return nil
}

func (q *query) project(p pipeline.Project) error {
	if len(p.Fields) == 0 {
		return invalid("empty projection")
	}
	seen := map[string]bool{}
	selected := make([]string, 0, len(p.Fields)+1)
	cols := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		src, err := q.column(f.Source.String())
		if err != nil {
			return err
		}
		if err := q.outputName(f.Name, seen); err != nil {
			return err
		}
		selected = append(selected, fmt.Sprintf("%s AS %s", src, quote(f.Name)))
		cols = append(cols, f.Name)
	}
	selected = append(selected, quote(ordColumn))

	q.sql = fmt.Sprintf("SELECT %s FROM (%s) AS %s", strings.Join(selected, ", "), q.sql, q.alias())
	q.cols = cols
	return nil
}

func (q *query) limit(l pipeline.Limit) error {
	if l.N < 0 {
		return invalid("negative limit %d", l.N)
	}
	q.sql = fmt.Sprintf("SELECT * FROM (%s) AS %s ORDER BY %s LIMIT ?", q.sql, q.alias(), quote(ordColumn))
	q.args = append(q.args, l.N)
	return nil
}

// Aggregate runs a pipeline against the records table and returns its rows in stream order.
func Aggregate(ctx context.Context, db *gorm.DB, p pipeline.Pipeline) ([]Row, error) {
	sql, args, err := Compile(p)
	if err != nil {
		return nil, err
	}

	rows, err := db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("error executing aggregation: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading aggregation columns: %w", err)
	}

	results := []Row{}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning aggregation row: %w", err)
		}
		row := make(Row, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregation rows: %w", err)
	}

	return results, nil
}
