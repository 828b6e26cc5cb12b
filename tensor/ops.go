package tensor

import (
	"fmt"
)

func (d *Dense[T]) Map(f func(T) T) *Dense[T] {
	out := NewZeros[T](d.Shape)
	for i, v := range d.Data {
		out.Data[i] = f(v)
	}
	return out
}

func (d *Dense[T]) Scale(alpha T) *Dense[T] {
	return d.Map(func(v T) T { return alpha * v })
}

func (d *Dense[T]) Clip(lo, hi T) *Dense[T] {
	return d.Map(func(v T) T {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})
}

// Zip combines a and b elementwise after broadcasting them to a common shape.
func Zip[T Float](a, b *Dense[T], f func(x, y T) T) (*Dense[T], error) {
	if a.Shape.Equal(b.Shape) {
		out := NewZeros[T](a.Shape)
		for i := range out.Data {
			out.Data[i] = f(a.Data[i], b.Data[i])
		}
		return out, nil
	}

	shape, err := BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, err
	}
	aStrides := broadcastStrides(a.Shape, shape)
	bStrides := broadcastStrides(b.Shape, shape)

	out := NewZeros[T](shape)
	rank := len(shape)
	idx := make([]int, rank)
	ai, bi := 0, 0
	for i := range out.Data {
		out.Data[i] = f(a.Data[ai], b.Data[bi])
		for ax := rank - 1; ax >= 0; ax-- {
			idx[ax]++
			ai += aStrides[ax]
			bi += bStrides[ax]
			if idx[ax] < shape[ax] {
				break
			}
			ai -= aStrides[ax] * shape[ax]
			bi -= bStrides[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return out, nil
}

// broadcastStrides returns strides of src viewed as target; broadcast axes get stride 0.
func broadcastStrides(src, target Shape) []int {
	strides := make([]int, len(target))
	srcStrides := src.Strides()
	offset := len(target) - len(src)
	for i := range target {
		j := i - offset
		if j < 0 || src[j] == 1 {
			continue
		}
		strides[i] = srcStrides[j]
	}
	return strides
}

func Add[T Float](a, b *Dense[T]) (*Dense[T], error) {
	return Zip(a, b, func(x, y T) T { return x + y })
}

func Sub[T Float](a, b *Dense[T]) (*Dense[T], error) {
	return Zip(a, b, func(x, y T) T { return x - y })
}

func Mul[T Float](a, b *Dense[T]) (*Dense[T], error) {
	return Zip(a, b, func(x, y T) T { return x * y })
}

func Div[T Float](a, b *Dense[T]) (*Dense[T], error) {
	return Zip(a, b, func(x, y T) T { return x / y })
}

func (d *Dense[T]) Sum() T {
	var s T
	for _, v := range d.Data {
		s += v
	}
	return s
}

// AxisSpan splits d around axis: outer is the product of the dimensions before it, inner the
// product of those after it. Element (o, k, i) lives at o*n*inner + k*inner + i.
func (d *Dense[T]) AxisSpan(axis int) (outer, n, inner int, err error) {
	if axis < 0 || axis >= d.Rank() {
		return 0, 0, 0, fmt.Errorf("%w: axis %d for rank %d", ErrAxis, axis, d.Rank())
	}
	outer = d.Shape[:axis].NumElements()
	n = d.Shape[axis]
	inner = d.Shape[axis+1:].NumElements()
	return outer, n, inner, nil
}

func (d *Dense[T]) reduce(axis int, init func(first T) T, step func(acc, v T) T) (*Dense[T], error) {
	outer, n, inner, err := d.AxisSpan(axis)
	if err != nil {
		return nil, err
	}
	shape := append(d.Shape[:axis].Clone(), d.Shape[axis+1:]...)
	out := NewZeros[T](shape)
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for i := 0; i < inner; i++ {
			acc := init(d.Data[base+i])
			for k := 1; k < n; k++ {
				acc = step(acc, d.Data[base+k*inner+i])
			}
			out.Data[o*inner+i] = acc
		}
	}
	return out, nil
}

// SumAxis sums over axis and removes it.
func (d *Dense[T]) SumAxis(axis int) (*Dense[T], error) {
	return d.reduce(axis, func(v T) T { return v }, func(acc, v T) T { return acc + v })
}

// MaxAxis takes the maximum over axis and removes it.
func (d *Dense[T]) MaxAxis(axis int) (*Dense[T], error) {
	return d.reduce(axis, func(v T) T { return v }, func(acc, v T) T { return max(acc, v) })
}

// MeanAxis averages over axis and removes it.
func (d *Dense[T]) MeanAxis(axis int) (*Dense[T], error) {
	sum, err := d.SumAxis(axis)
	if err != nil {
		return nil, err
	}
	return sum.Scale(1 / T(d.Shape[axis])), nil
}
