// Package array provides the homogeneous numeric buffer type used as the
// array item kind in a container. Arrays carry a dtype, a shape, and a flat
// element buffer; they are the only item kind written to the archive's
// array lane.
package array

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DType identifies the element type of an Array.
type DType uint8

const (
	Float64 DType = iota
	Int64
)

// String returns the dtype name used in archive records.
func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	}
	return "unknown"
}

// ParseDType resolves a dtype name read back from an archive.
func ParseDType(s string) (DType, error) {
	switch s {
	case "float64":
		return Float64, nil
	case "int64":
		return Int64, nil
	}
	return 0, fmt.Errorf("unknown dtype: %s", s)
}

// Array is a homogeneous numeric buffer with an n-dimensional shape.
// Exactly one of the element slices is populated, selected by dtype.
type Array struct {
	dtype DType
	shape []int
	f64   []float64
	i64   []int64
}

// FromFloat64 builds a float64 array. The shape must describe exactly
// len(data) elements.
func FromFloat64(shape []int, data []float64) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{dtype: Float64, shape: append([]int(nil), shape...), f64: append([]float64(nil), data...)}, nil
}

// FromInt64 builds an int64 array. The shape must describe exactly
// len(data) elements.
func FromInt64(shape []int, data []int64) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{dtype: Int64, shape: append([]int(nil), shape...), i64: append([]int64(nil), data...)}, nil
}

func checkShape(shape []int, n int) error {
	if len(shape) == 0 {
		return fmt.Errorf("shape must have at least one dimension")
	}
	total := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", shape)
		}
		total *= d
	}
	if total != n {
		return fmt.Errorf("shape %v describes %d elements, have %d", shape, total, n)
	}
	return nil
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Len returns the total number of elements.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Float64s returns the element buffer of a float64 array, or nil.
func (a *Array) Float64s() []float64 { return a.f64 }

// Int64s returns the element buffer of an int64 array, or nil.
func (a *Array) Int64s() []int64 { return a.i64 }

// SizeBytes returns the size of the element buffer in bytes.
func (a *Array) SizeBytes() int64 { return int64(a.Len()) * 8 }

// ShapeString renders the shape in tuple form, e.g. "(2, 3)" or "(5,)".
func (a *Array) ShapeString() string {
	if len(a.shape) == 1 {
		return fmt.Sprintf("(%d,)", a.shape[0])
	}
	parts := make([]string, len(a.shape))
	for i, d := range a.shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Equal reports element-wise equality, including dtype and shape.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	switch a.dtype {
	case Float64:
		for i := range a.f64 {
			if a.f64[i] != b.f64[i] {
				return false
			}
		}
	case Int64:
		for i := range a.i64 {
			if a.i64[i] != b.i64[i] {
				return false
			}
		}
	}
	return true
}

// Encode serializes the element buffer as little-endian bytes.
func (a *Array) Encode() []byte {
	buf := make([]byte, a.Len()*8)
	switch a.dtype {
	case Float64:
		for i, v := range a.f64 {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
	case Int64:
		for i, v := range a.i64 {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
	}
	return buf
}

// Decode reconstructs an array from a little-endian element buffer.
func Decode(dtype DType, shape []int, buf []byte) (*Array, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("element buffer length %d is not a multiple of 8", len(buf))
	}
	n := len(buf) / 8
	if err := checkShape(shape, n); err != nil {
		return nil, err
	}
	a := &Array{dtype: dtype, shape: append([]int(nil), shape...)}
	switch dtype {
	case Float64:
		a.f64 = make([]float64, n)
		for i := range a.f64 {
			a.f64[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
	case Int64:
		a.i64 = make([]int64, n)
		for i := range a.i64 {
			a.i64[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
		}
	default:
		return nil, fmt.Errorf("unknown dtype: %d", dtype)
	}
	return a, nil
}
