// Package pooling aggregates a (time, batch, channel, row, col) tensor over its time axis.
package pooling

import (
	"errors"
	"fmt"
	"math"

	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/tensor"
)

var (
	ErrUnknown   = errors.New("pooling: unknown pooling function")
	ErrEmptyMask = errors.New("pooling: mask selects no time step")
)

type Kind int

const (
	Max Kind = iota
	Mean
	L2
)

var names = [...]string{
	Max:  "max",
	Mean: "mean",
	L2:   "L2",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

func Parse(tag string) (Kind, error) {
	for k, name := range names {
		if name == tag {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, tag)
}

// Aggregate reduces x over axis 0. A non-nil mask of shape (time, batch) weights the time
// steps of every batch item: Mean and L2 become mask-weighted averages and Max only looks at
// steps whose weight is non-zero.
func Aggregate[T tensor.Float](x *tensor.Dense[T], k Kind, mask *tensor.Dense[T]) (*tensor.Dense[T], error) {
	if x.Rank() != 5 {
		return nil, fmt.Errorf("%w: pooling needs rank 5, got %v", tensor.ErrRank, x.Shape)
	}
	if mask != nil {
		if mask.Rank() != 2 {
			return nil, fmt.Errorf("%w: mask must be rank 2, got %v", tensor.ErrRank, mask.Shape)
		}
		if !x.Shape[:2].Equal(mask.Shape) {
			return nil, fmt.Errorf("%w: mask %v does not lead %v", tensor.ErrShape, mask.Shape, x.Shape)
		}
	}

	switch k {
	case Max:
		if mask == nil {
			return x.MaxAxis(0)
		}
		return maskedMax(x, mask)
	case Mean:
		if mask == nil {
			return x.MeanAxis(0)
		}
		return weightedMean(x, mask)
	case L2:
		sq := x.Map(func(v T) T { return v * v })
		var mean *tensor.Dense[T]
		var err error
		if mask == nil {
			mean, err = sq.MeanAxis(0)
		} else {
			mean, err = weightedMean(sq, mask)
		}
		if err != nil {
			return nil, err
		}
		return mean.Map(mathx.Sqrt[T]), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknown, k)
	}
}

// weightedMean computes Σ_t x[t]·mask[t] / Σ_t mask[t] per batch item.
func weightedMean[T tensor.Float](x, mask *tensor.Dense[T]) (*tensor.Dense[T], error) {
	total, err := mask.SumAxis(0)
	if err != nil {
		return nil, err
	}
	for b, s := range total.Data {
		if s == 0 {
			return nil, fmt.Errorf("%w: batch item %d", ErrEmptyMask, b)
		}
	}
	w, err := tensor.Div(mask, total.PadLeft(1))
	if err != nil {
		return nil, err
	}
	prod, err := tensor.Mul(x, w.PadRight(3))
	if err != nil {
		return nil, err
	}
	return prod.SumAxis(0)
}

func maskedMax[T tensor.Float](x, mask *tensor.Dense[T]) (*tensor.Dense[T], error) {
	steps, batches := x.Shape[0], x.Shape[1]
	inner := x.Shape[2:].NumElements()
	out := tensor.NewZeros[T](x.Shape[1:])
	for b := 0; b < batches; b++ {
		dst := out.Data[b*inner : (b+1)*inner]
		for i := range dst {
			dst[i] = T(math.Inf(-1))
		}
		seen := false
		for t := 0; t < steps; t++ {
			if mask.Data[t*batches+b] == 0 {
				continue
			}
			seen = true
			src := x.Data[(t*batches+b)*inner : (t*batches+b+1)*inner]
			for i, v := range src {
				dst[i] = max(dst[i], v)
			}
		}
		if !seen {
			return nil, fmt.Errorf("%w: batch item %d", ErrEmptyMask, b)
		}
	}
	return out, nil
}
