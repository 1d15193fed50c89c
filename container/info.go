package container

import (
	"math"
	"sort"
	"strconv"
)

// ItemInfo is one row of the introspection summary.
type ItemInfo struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	SizeMiB float64 `json:"size_mib"`
	Shape   string  `json:"shape"`
}

// Optional interfaces probed on opaque values when computing a shape.
// A value supporting none of them reports "not available"; probing never
// aborts the summary.
type (
	// Shaper exposes a multi-dimensional shape.
	Shaper interface{ Shape() []int }
	// Sizer exposes an element count.
	Sizer interface{ Size() int }
	// Lener exposes a length.
	Lener interface{ Len() int }
)

const shapeNotAvailable = "not available"

// Info summarizes the container's items: one row per registry entry with
// the value's type name, an approximate in-memory footprint in MiB, and a
// descriptive shape, sorted by item name.
func (c *Container) Info() []ItemInfo {
	rows := make([]ItemInfo, 0, len(c.entries))
	for _, ni := range c.Items() {
		rows = append(rows, ItemInfo{
			Name:    ni.Name,
			Type:    ni.Item.TypeName(),
			SizeMiB: float64(approxSizeBytes(ni.Item)) / (1024.0 * 1024.0),
			Shape:   shapeString(ni.Item),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// MemoryUsage returns the total estimated memory footprint in MiB: the sum
// of the size column of Info. Zero for an empty container.
func (c *Container) MemoryUsage() float64 {
	var total float64
	for _, row := range c.Info() {
		total += row.SizeMiB
	}
	return total
}

// Sizeof returns the ceiling of the total memory estimate converted to
// bytes.
func (c *Container) Sizeof() int64 {
	return int64(math.Ceil(c.MemoryUsage() * 1024 * 1024))
}

// approxSizeBytes estimates an item's in-memory footprint. Estimates are
// shallow for aggregate kinds: header overhead plus one word per element,
// not the deep size of the contents.
func approxSizeBytes(it Item) int64 {
	const header = 48
	switch it.kind {
	case KindScalar:
		switch v := it.value.(type) {
		case string:
			return 16 + int64(len(v))
		case complex128:
			return 16
		default:
			return 8
		}
	case KindList:
		v := it.value.([]any)
		return header + 16*int64(len(v))
	case KindDict:
		v := it.value.(map[string]any)
		return header + 32*int64(len(v))
	case KindSeries:
		s, _ := it.Series()
		return header + 16*int64(s.Len())
	case KindTable:
		t, _ := it.Table()
		return header + 8*int64(t.NumRows())*int64(t.NumCols()+1)
	case KindArray:
		a, _ := it.Array()
		return header + a.SizeBytes()
	}
	if sz, ok := it.value.(Sizer); ok {
		return header + 16*int64(sz.Size())
	}
	return header
}

// shapeString produces the descriptive shape of an item: the
// multi-dimensional shape when the value has one, an element count when it
// has a size or length, and "not available" otherwise.
func shapeString(it Item) string {
	switch it.kind {
	case KindArray:
		a, _ := it.Array()
		return a.ShapeString()
	case KindTable:
		t, _ := it.Table()
		return t.ShapeString()
	case KindSeries:
		s, _ := it.Series()
		return s.ShapeString()
	case KindList:
		return strconv.Itoa(len(it.value.([]any)))
	case KindDict:
		return strconv.Itoa(len(it.value.(map[string]any)))
	case KindScalar:
		if v, ok := it.value.(string); ok {
			return strconv.Itoa(len(v))
		}
		return shapeNotAvailable
	case KindOpaque:
		switch v := it.value.(type) {
		case Shaper:
			return shapeOf(v.Shape())
		case Sizer:
			return strconv.Itoa(v.Size())
		case Lener:
			return strconv.Itoa(v.Len())
		}
	}
	return shapeNotAvailable
}

func shapeOf(dims []int) string {
	if len(dims) == 1 {
		return "(" + strconv.Itoa(dims[0]) + ",)"
	}
	s := "("
	for i, d := range dims {
		if i > 0 {
			s += ", "
		}
		s += strconv.Itoa(d)
	}
	return s + ")"
}
