package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a tensor, outermost axis first.
type Shape []int

func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the number of elements a tensor of this shape holds.
// A rank-0 shape holds one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d of %v is %d", ErrShape, i, s, dim)
		}
	}
	return nil
}

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Strides returns row-major strides: strides[i] is the product of the dimensions after i.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseShape parses a comma separated list such as "3,4,5".
func ParseShape(text string) (Shape, error) {
	fields := strings.Split(text, ",")
	shape := make(Shape, 0, len(fields))
	for _, f := range fields {
		dim, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrShape, text, err)
		}
		shape = append(shape, dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

// BroadcastShapes returns the NumPy-style broadcast of a and b.
//
// Shapes are aligned from the right; a dimension is compatible when the two are equal or
// one of them is 1. Missing leading dimensions count as 1.
func BroadcastShapes(a, b Shape) (Shape, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if j := len(a) - rank + i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - rank + i; j >= 0 {
			db = b[j]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("%w: cannot broadcast %v and %v", ErrShape, a, b)
		}
	}
	return out, nil
}
