// Package cost computes summed training losses over prediction and target tensors, with an
// optional rank 2 (time, batch) mask that removes padded positions.
package cost

import (
	"errors"
	"fmt"

	"github.com/sw965/sparnn/activation"
	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/tensor"
)

var ErrUnknown = errors.New("cost: unknown cost function")

// DefaultEpsilon keeps clipped predictions away from 0 and 1 before taking logarithms.
const DefaultEpsilon = 10e-8

type Kind int

const (
	SquaredLoss Kind = iota
	BinaryCrossEntropy
	CategoricalCrossEntropy
	NegativeLogCosine
)

var names = [...]string{
	SquaredLoss:             "SquaredLoss",
	BinaryCrossEntropy:      "BinaryCrossEntropy",
	CategoricalCrossEntropy: "CategoricalCrossEntropy",
	NegativeLogCosine:       "NegativeLogCosine",
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

type config[T tensor.Float] struct {
	mask    *tensor.Dense[T]
	epsilon T
}

type Option[T tensor.Float] func(*config[T])

// WithMask weights every (time, batch) position by mask; zero entries drop the position.
func WithMask[T tensor.Float](mask *tensor.Dense[T]) Option[T] {
	return func(c *config[T]) {
		c.mask = mask
	}
}

func WithEpsilon[T tensor.Float](eps T) Option[T] {
	return func(c *config[T]) {
		c.epsilon = eps
	}
}

// Compute returns the summed loss of prediction against target.
func Compute[T tensor.Float](k Kind, prediction, target *tensor.Dense[T], opts ...Option[T]) (T, error) {
	c := config[T]{epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(&c)
	}
	if c.mask != nil && c.mask.Rank() != 2 {
		return 0, fmt.Errorf("%w: mask must be rank 2, got %v", tensor.ErrRank, c.mask.Shape)
	}

	switch k {
	case SquaredLoss:
		return squaredLoss(prediction, target, c.mask)
	case BinaryCrossEntropy:
		return binaryCrossEntropy(prediction, target, c.mask, c.epsilon)
	case CategoricalCrossEntropy:
		return categoricalCrossEntropy(prediction, target, c.mask, c.epsilon)
	case NegativeLogCosine:
		return negativeLogCosine(prediction, target, c.mask)
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknown, k)
	}
}

func requireSameShape[T tensor.Float](prediction, target *tensor.Dense[T]) error {
	if !prediction.Shape.Equal(target.Shape) {
		return fmt.Errorf("%w: prediction %v and target %v", tensor.ErrShape, prediction.Shape, target.Shape)
	}
	return nil
}

// weighted multiplies values by mask padded on the right so it broadcasts over the trailing
// axes, then sums.
func weighted[T tensor.Float](values, mask *tensor.Dense[T]) (T, error) {
	pad := values.Rank() - mask.Rank()
	if pad < 0 || !values.Shape[:2].Equal(mask.Shape) {
		return 0, fmt.Errorf("%w: mask %v does not lead %v", tensor.ErrShape, mask.Shape, values.Shape)
	}
	prod, err := tensor.Mul(values, mask.PadRight(pad))
	if err != nil {
		return 0, err
	}
	return prod.Sum(), nil
}

func squaredLoss[T tensor.Float](prediction, target, mask *tensor.Dense[T]) (T, error) {
	if err := requireSameShape(prediction, target); err != nil {
		return 0, err
	}
	diff, err := tensor.Sub(prediction, target)
	if err != nil {
		return 0, err
	}
	sq := diff.Map(func(v T) T { return v * v })
	if mask == nil {
		return sq.Sum(), nil
	}
	if prediction.Rank() != 5 {
		return 0, fmt.Errorf("%w: masked squared loss needs rank 5, got %v", tensor.ErrRank, prediction.Shape)
	}
	return weighted(sq, mask)
}

func binaryCrossEntropy[T tensor.Float](prediction, target, mask *tensor.Dense[T], eps T) (T, error) {
	if err := requireSameShape(prediction, target); err != nil {
		return 0, err
	}
	p := prediction.Clip(eps, 1-eps)
	bce, err := tensor.Zip(p, target, func(p, t T) T {
		return -(t*mathx.Log(p) + (1-t)*mathx.Log(1-p))
	})
	if err != nil {
		return 0, err
	}
	if mask == nil {
		return bce.Sum(), nil
	}
	if r := prediction.Rank(); r != 3 && r != 5 {
		return 0, fmt.Errorf("%w: masked binary cross-entropy needs rank 3 or 5, got %v", tensor.ErrRank, prediction.Shape)
	}
	return weighted(bce, mask)
}

// categoricalCrossEntropy reads target as integer class indices, one per position of the
// prediction with its channel axis removed, in row-major position order.
//
// Masked positions are selected rather than biased: a zero mask entry skips the position
// and any other entry scales its loss.
func categoricalCrossEntropy[T tensor.Float](prediction, target, mask *tensor.Dense[T], eps T) (T, error) {
	axis, err := activation.ChannelAxis(prediction.Rank())
	if err != nil {
		return 0, err
	}
	outer, n, inner, err := prediction.AxisSpan(axis)
	if err != nil {
		return 0, err
	}
	if target.N() != outer*inner {
		return 0, fmt.Errorf("%w: %d class indices for %d positions of %v", tensor.ErrShape, target.N(), outer*inner, prediction.Shape)
	}

	var weights []T
	if mask != nil {
		r := prediction.Rank()
		if r != 3 && r != 5 {
			return 0, fmt.Errorf("%w: masked categorical cross-entropy needs rank 3 or 5, got %v", tensor.ErrRank, prediction.Shape)
		}
		if !prediction.Shape[:2].Equal(mask.Shape) {
			return 0, fmt.Errorf("%w: mask %v does not lead %v", tensor.ErrShape, mask.Shape, prediction.Shape)
		}
		// (T, B) positions are the outer loop, so each mask entry covers inner positions.
		weights = mask.Data
	}

	var loss T
	for o := 0; o < outer; o++ {
		w := T(1)
		if weights != nil {
			w = weights[o]
			if w == 0 {
				continue
			}
		}
		base := o * n * inner
		for i := 0; i < inner; i++ {
			class := int(target.Data[o*inner+i])
			if class < 0 || class >= n {
				return 0, fmt.Errorf("%w: class index %d outside [0, %d)", tensor.ErrShape, class, n)
			}
			p := min(max(prediction.Data[base+class*inner+i], eps), 1-eps)
			loss -= w * mathx.Log(p)
		}
	}
	return loss, nil
}

// negativeLogCosine sums -log(cos(p, t)) over the (time, batch) positions of rank 5 tensors,
// treating each (channel, row, col) block as one vector.
func negativeLogCosine[T tensor.Float](prediction, target, mask *tensor.Dense[T]) (T, error) {
	if prediction.Rank() != 5 {
		return 0, fmt.Errorf("%w: negative log cosine needs rank 5, got %v", tensor.ErrRank, prediction.Shape)
	}
	if err := requireSameShape(prediction, target); err != nil {
		return 0, err
	}
	if mask != nil && !prediction.Shape[:2].Equal(mask.Shape) {
		return 0, fmt.Errorf("%w: mask %v does not lead %v", tensor.ErrShape, mask.Shape, prediction.Shape)
	}

	positions := prediction.Shape[:2].NumElements()
	size := prediction.Shape[2:].NumElements()
	var loss T
	for pos := 0; pos < positions; pos++ {
		w := T(1)
		if mask != nil {
			w = mask.Data[pos]
			if w == 0 {
				continue
			}
		}
		var pp, tt, pt T
		for j := pos * size; j < (pos+1)*size; j++ {
			p, t := prediction.Data[j], target.Data[j]
			pp += p * p
			tt += t * t
			pt += p * t
		}
		loss += w * (0.5*mathx.Log(pp) + 0.5*mathx.Log(tt) - mathx.Log(pt))
	}
	return loss, nil
}
