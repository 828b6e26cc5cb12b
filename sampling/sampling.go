// Package sampling picks one class per position from channel-wise scores.
package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sw965/sparnn/tensor"
)

var ErrUnknown = errors.New("sampling: unknown sampling function")

type Kind int

const (
	Argmax Kind = iota
	Multinomial
)

var names = [...]string{
	Argmax:      "argmax",
	Multinomial: "multinomial",
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

func channelAxis(rank int) (int, error) {
	switch rank {
	case 4:
		return 1, nil
	case 5:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: sampling needs rank 4 or 5, got %d", tensor.ErrRank, rank)
	}
}

// Sample returns the chosen class index for every position of x. The channel axis is kept
// with size 1. rng is only used by Multinomial, which reads the channel values as
// unnormalized non-negative weights.
func Sample[T tensor.Float](x *tensor.Dense[T], k Kind, rng *rand.Rand) (*tensor.Dense[T], error) {
	axis, err := channelAxis(x.Rank())
	if err != nil {
		return nil, err
	}
	var pick func([]T) (int, error)
	switch k {
	case Argmax:
		pick = func(scores []T) (int, error) {
			return argmax(scores), nil
		}
	case Multinomial:
		if rng == nil {
			return nil, fmt.Errorf("sampling: multinomial sampling needs a generator")
		}
		pick = func(weights []T) (int, error) {
			return draw(weights, rng)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknown, k)
	}

	outer, n, inner, err := x.AxisSpan(axis)
	if err != nil {
		return nil, err
	}
	shape := x.Shape.Clone()
	shape[axis] = 1
	out := tensor.NewZeros[T](shape)
	scores := make([]T, n)
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for i := 0; i < inner; i++ {
			for c := range scores {
				scores[c] = x.Data[base+c*inner+i]
			}
			class, err := pick(scores)
			if err != nil {
				return nil, err
			}
			out.Data[o*inner+i] = T(class)
		}
	}
	return out, nil
}

// argmax returns the first index holding the largest score.
func argmax[T tensor.Float](scores []T) int {
	best := 0
	for i, s := range scores[1:] {
		if s > scores[best] {
			best = i + 1
		}
	}
	return best
}

func draw[T tensor.Float](weights []T, rng *rand.Rand) (int, error) {
	var total float64
	for _, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("sampling: negative weight %v", w)
		}
		total += float64(w)
	}
	if total == 0 {
		return 0, fmt.Errorf("sampling: all weights are zero")
	}
	r := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += float64(w)
		if r < acc {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}
