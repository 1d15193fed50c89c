// Package frame provides the tabular item kinds held by a container: Series
// (a single named column of values) and Table (a row index plus named
// columns). Cell values are dynamically typed the way the archive's tabular
// store is: nil, int64, float64, string, or bool.
package frame

import (
	"fmt"
	"strings"
)

// Series is a one-dimensional named sequence of values.
type Series struct {
	name   string
	values []any
}

// NewSeries builds a series from the given values.
func NewSeries(name string, values ...any) *Series {
	return &Series{name: name, values: append([]any(nil), values...)}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of values.
func (s *Series) Len() int { return len(s.values) }

// Values returns a copy of the underlying values.
func (s *Series) Values() []any { return append([]any(nil), s.values...) }

// Value returns the value at position i.
func (s *Series) Value(i int) any { return s.values[i] }

// ShapeString renders the one-dimensional shape, e.g. "(4,)".
func (s *Series) ShapeString() string { return fmt.Sprintf("(%d,)", len(s.values)) }

// Equal reports whether two series hold equal names and element-wise equal
// values, with numeric values compared across integer and float forms.
func (s *Series) Equal(o *Series) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.name != o.name || len(s.values) != len(o.values) {
		return false
	}
	for i := range s.values {
		if !CellEqual(s.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

// Column is a named column of values inside a Table.
type Column struct {
	Name   string
	Values []any
}

// Table is a two-dimensional tabular structure: a labeled row index plus an
// ordered set of named columns, all of equal length.
type Table struct {
	indexName string
	index     []any
	columns   []Column
}

// NewTable builds a table. Every column must match the index length, and
// column names (including the index label) must be unique.
func NewTable(indexName string, index []any, columns ...Column) (*Table, error) {
	seen := map[string]bool{}
	if indexName != "" {
		seen[indexName] = true
	}
	for _, col := range columns {
		if len(col.Values) != len(index) {
			return nil, fmt.Errorf("column %q has %d values, index has %d", col.Name, len(col.Values), len(index))
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column name: %q", col.Name)
		}
		seen[col.Name] = true
	}
	t := &Table{indexName: indexName, index: append([]any(nil), index...)}
	for _, col := range columns {
		t.columns = append(t.columns, Column{Name: col.Name, Values: append([]any(nil), col.Values...)})
	}
	return t, nil
}

// IndexName returns the label of the row index ("" when unnamed).
func (t *Table) IndexName() string { return t.indexName }

// Index returns a copy of the row index values.
func (t *Table) Index() []any { return append([]any(nil), t.index...) }

// Columns returns the column names in definition order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the values of a named column.
func (t *Table) Column(name string) ([]any, bool) {
	for _, col := range t.columns {
		if col.Name == name {
			return append([]any(nil), col.Values...), true
		}
	}
	return nil, false
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.index) }

// NumCols returns the column count, excluding the index.
func (t *Table) NumCols() int { return len(t.columns) }

// ShapeString renders the two-dimensional shape, e.g. "(3, 2)".
func (t *Table) ShapeString() string {
	return fmt.Sprintf("(%d, %d)", t.NumRows(), t.NumCols())
}

// Equal reports whether two tables hold the same index label, index values,
// column order, and element-wise equal cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.indexName != o.indexName || len(t.index) != len(o.index) || len(t.columns) != len(o.columns) {
		return false
	}
	for i := range t.index {
		if !CellEqual(t.index[i], o.index[i]) {
			return false
		}
	}
	for i := range t.columns {
		if t.columns[i].Name != o.columns[i].Name {
			return false
		}
		for j := range t.columns[i].Values {
			if !CellEqual(t.columns[i].Values[j], o.columns[i].Values[j]) {
				return false
			}
		}
	}
	return true
}

// String summarizes the table for diagnostics.
func (t *Table) String() string {
	return fmt.Sprintf("Table(index=%q, columns=[%s], rows=%d)",
		t.indexName, strings.Join(t.Columns(), ", "), t.NumRows())
}

// CellEqual compares two cell values. Numeric values are compared by
// magnitude regardless of integer or float representation, since the store
// round-trips cells through dynamically typed SQL columns.
func CellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
