// Package tensor provides the dense row-major tensors every helper in this module consumes
// and produces.
package tensor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sw965/sparnn/mathx"
)

var (
	ErrShape = errors.New("tensor: shape mismatch")
	ErrRank  = errors.New("tensor: unsupported rank")
	ErrAxis  = errors.New("tensor: axis out of range")
)

type Float = mathx.Float

// Dense is a contiguous row-major tensor. Operations return new tensors and leave their
// operands untouched.
type Dense[T Float] struct {
	Shape Shape
	Data  []T
}

// New wraps data as a tensor of the given shape. The tensor owns data afterwards.
func New[T Float](shape Shape, data []T) (*Dense[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrShape, len(data), shape)
	}
	return &Dense[T]{Shape: shape.Clone(), Data: data}, nil
}

func NewZeros[T Float](shape Shape) *Dense[T] {
	return &Dense[T]{Shape: shape.Clone(), Data: make([]T, shape.NumElements())}
}

func NewZerosLike[T Float](d *Dense[T]) *Dense[T] {
	return NewZeros[T](d.Shape)
}

func NewFull[T Float](shape Shape, v T) *Dense[T] {
	d := NewZeros[T](shape)
	for i := range d.Data {
		d.Data[i] = v
	}
	return d
}

func NewOnes[T Float](shape Shape) *Dense[T] {
	return NewFull[T](shape, 1)
}

func (d *Dense[T]) Rank() int {
	return len(d.Shape)
}

func (d *Dense[T]) N() int {
	return len(d.Data)
}

// Offset returns the flat index of idx. It panics when idx does not address an element.
func (d *Dense[T]) Offset(idx ...int) int {
	if len(idx) != len(d.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(d.Shape)))
	}
	off := 0
	for i, j := range idx {
		if j < 0 || j >= d.Shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, d.Shape))
		}
		off = off*d.Shape[i] + j
	}
	return off
}

func (d *Dense[T]) At(idx ...int) T {
	return d.Data[d.Offset(idx...)]
}

// Set writes v in place.
func (d *Dense[T]) Set(v T, idx ...int) {
	d.Data[d.Offset(idx...)] = v
}

func (d *Dense[T]) Clone() *Dense[T] {
	return &Dense[T]{Shape: d.Shape.Clone(), Data: slices.Clone(d.Data)}
}

func (d *Dense[T]) String() string {
	return fmt.Sprintf("Dense%v%v", d.Shape, d.Data)
}

// Index returns a copy of the i-th sub-tensor along axis 0.
func (d *Dense[T]) Index(i int) (*Dense[T], error) {
	if d.Rank() == 0 {
		return nil, fmt.Errorf("%w: cannot index a scalar", ErrRank)
	}
	if i < 0 || i >= d.Shape[0] {
		return nil, fmt.Errorf("%w: index %d for leading dimension %d", ErrAxis, i, d.Shape[0])
	}
	sub := d.Shape[1:].Clone()
	n := sub.NumElements()
	return &Dense[T]{Shape: sub, Data: slices.Clone(d.Data[i*n : (i+1)*n])}, nil
}

// Stack joins equally shaped tensors along a new leading axis.
func Stack[T Float](ts []*Dense[T]) (*Dense[T], error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}
	inner := ts[0].Shape
	data := make([]T, 0, len(ts)*inner.NumElements())
	for i, t := range ts {
		if !t.Shape.Equal(inner) {
			return nil, fmt.Errorf("%w: stack element %d has shape %v, want %v", ErrShape, i, t.Shape, inner)
		}
		data = append(data, t.Data...)
	}
	shape := append(Shape{len(ts)}, inner...)
	return &Dense[T]{Shape: shape, Data: data}, nil
}

// Unstack is the inverse of Stack.
func Unstack[T Float](d *Dense[T]) ([]*Dense[T], error) {
	if d.Rank() == 0 {
		return nil, fmt.Errorf("%w: cannot unstack a scalar", ErrRank)
	}
	ts := make([]*Dense[T], d.Shape[0])
	for i := range ts {
		t, err := d.Index(i)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return ts, nil
}

func (d *Dense[T]) Reshape(shape Shape) (*Dense[T], error) {
	if shape.NumElements() != d.N() {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShape, d.Shape, shape)
	}
	return &Dense[T]{Shape: shape.Clone(), Data: slices.Clone(d.Data)}, nil
}

// Flatten keeps the leading ndim-1 axes and collapses the rest into one.
func (d *Dense[T]) Flatten(ndim int) (*Dense[T], error) {
	if ndim < 1 || ndim > d.Rank() {
		return nil, fmt.Errorf("%w: flatten to %d axes from rank %d", ErrAxis, ndim, d.Rank())
	}
	shape := d.Shape[:ndim-1].Clone()
	shape = append(shape, d.Shape[ndim-1:].NumElements())
	return d.Reshape(shape)
}

// PadRight appends n unit axes.
func (d *Dense[T]) PadRight(n int) *Dense[T] {
	shape := d.Shape.Clone()
	for range n {
		shape = append(shape, 1)
	}
	return &Dense[T]{Shape: shape, Data: slices.Clone(d.Data)}
}

// PadLeft prepends n unit axes.
func (d *Dense[T]) PadLeft(n int) *Dense[T] {
	shape := make(Shape, n, n+d.Rank())
	for i := range shape {
		shape[i] = 1
	}
	shape = append(shape, d.Shape...)
	return &Dense[T]{Shape: shape, Data: slices.Clone(d.Data)}
}

// Transpose permutes the axes: axis i of the result is axis perm[i] of d.
func (d *Dense[T]) Transpose(perm ...int) (*Dense[T], error) {
	rank := d.Rank()
	if len(perm) != rank {
		return nil, fmt.Errorf("%w: permutation %v for rank %d", ErrAxis, perm, rank)
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return nil, fmt.Errorf("%w: invalid permutation %v", ErrAxis, perm)
		}
		seen[p] = true
	}

	srcStrides := d.Shape.Strides()
	shape := make(Shape, rank)
	strides := make([]int, rank)
	for i, p := range perm {
		shape[i] = d.Shape[p]
		strides[i] = srcStrides[p]
	}

	out := NewZeros[T](shape)
	idx := make([]int, rank)
	src := 0
	for dst := range out.Data {
		out.Data[dst] = d.Data[src]
		for ax := rank - 1; ax >= 0; ax-- {
			idx[ax]++
			src += strides[ax]
			if idx[ax] < shape[ax] {
				break
			}
			src -= strides[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return out, nil
}

// Cast converts the element type.
func Cast[U, T Float](d *Dense[T]) *Dense[U] {
	data := make([]U, len(d.Data))
	for i, v := range d.Data {
		data[i] = U(v)
	}
	return &Dense[U]{Shape: d.Shape.Clone(), Data: data}
}
