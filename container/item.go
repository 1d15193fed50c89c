package container

import (
	"fmt"
	"reflect"

	"github.com/cartonlabs/carton/array"
	"github.com/cartonlabs/carton/frame"
)

// Kind is the closed classification of container items. Every item is
// exactly one kind; classification happens once, at construction, so
// introspection and archiving dispatch on a single switch.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar       // string, int64, float64, complex128
	KindList         // []any
	KindDict         // map[string]any
	KindSeries       // *frame.Series
	KindTable        // *frame.Table
	KindArray        // *array.Array
	KindOpaque       // anything else; never archived
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSeries:
		return "series"
	case KindTable:
		return "table"
	case KindArray:
		return "array"
	case KindOpaque:
		return "opaque"
	}
	return "invalid"
}

// Item is a tagged variant holding one container value.
type Item struct {
	kind  Kind
	value any
}

// String builds a scalar string item.
func String(v string) Item { return Item{kind: KindScalar, value: v} }

// Int builds a scalar integer item.
func Int(v int64) Item { return Item{kind: KindScalar, value: v} }

// Float builds a scalar float item.
func Float(v float64) Item { return Item{kind: KindScalar, value: v} }

// Complex builds a scalar complex item.
func Complex(v complex128) Item { return Item{kind: KindScalar, value: v} }

// List builds a list item.
func List(values ...any) Item {
	return Item{kind: KindList, value: append([]any(nil), values...)}
}

// Dict builds a dict item.
func Dict(m map[string]any) Item {
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Item{kind: KindDict, value: cp}
}

// SeriesOf builds a tabular series item.
func SeriesOf(s *frame.Series) Item { return Item{kind: KindSeries, value: s} }

// TableOf builds a tabular table item.
func TableOf(t *frame.Table) Item { return Item{kind: KindTable, value: t} }

// ArrayOf builds a columnar array item.
func ArrayOf(a *array.Array) Item { return Item{kind: KindArray, value: a} }

// Opaque wraps a value of an unrecognized kind. Opaque items participate in
// introspection but are skipped at archive time.
func Opaque(v any) Item { return Item{kind: KindOpaque, value: v} }

// Of classifies an arbitrary value into an item. Values that match no
// supported kind become opaque.
func Of(v any) Item {
	switch x := v.(type) {
	case Item:
		return x
	case string:
		return String(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case complex128:
		return Complex(x)
	case []any:
		return List(x...)
	case map[string]any:
		return Dict(x)
	case *frame.Series:
		return SeriesOf(x)
	case *frame.Table:
		return TableOf(x)
	case *array.Array:
		return ArrayOf(x)
	}
	return Opaque(v)
}

// Kind returns the item's classification.
func (it Item) Kind() Kind { return it.kind }

// Value returns the wrapped value.
func (it Item) Value() any { return it.value }

// IsZero reports whether the item holds nothing.
func (it Item) IsZero() bool { return it.kind == KindInvalid }

// Series returns the payload of a series item.
func (it Item) Series() (*frame.Series, bool) {
	s, ok := it.value.(*frame.Series)
	return s, ok && it.kind == KindSeries
}

// Table returns the payload of a table item.
func (it Item) Table() (*frame.Table, bool) {
	t, ok := it.value.(*frame.Table)
	return t, ok && it.kind == KindTable
}

// Array returns the payload of an array item.
func (it Item) Array() (*array.Array, bool) {
	a, ok := it.value.(*array.Array)
	return a, ok && it.kind == KindArray
}

// TypeName returns the display type of the wrapped value, as reported in
// introspection summaries.
func (it Item) TypeName() string {
	switch it.kind {
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSeries:
		return "Series"
	case KindTable:
		return "Table"
	case KindArray:
		return "Array"
	}
	if it.value == nil {
		return "nil"
	}
	if it.kind == KindScalar {
		return reflect.TypeOf(it.value).String()
	}
	return fmt.Sprintf("%T", it.value)
}

// Equal compares two items. Array, table, and series payloads are compared
// element-wise; lists and dicts compare recursively with numeric laxity, so
// values survive a JSON round trip through the archive's special lane.
func (it Item) Equal(other Item) bool {
	if it.kind != other.kind {
		return false
	}
	switch it.kind {
	case KindArray:
		a, _ := it.Array()
		b, _ := other.Array()
		return a.Equal(b)
	case KindTable:
		a, _ := it.Table()
		b, _ := other.Table()
		return a.Equal(b)
	case KindSeries:
		a, _ := it.Series()
		b, _ := other.Series()
		return a.Equal(b)
	case KindList:
		return looseEqual(it.value, other.value)
	case KindDict:
		return looseEqual(it.value, other.value)
	case KindScalar:
		return looseEqual(it.value, other.value)
	}
	return reflect.DeepEqual(it.value, other.value)
}

// looseEqual compares scalars, slices, and maps with cross-representation
// numeric equality.
func looseEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !looseEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !looseEqual(v, bval) {
				return false
			}
		}
		return true
	}
	return frame.CellEqual(a, b)
}
