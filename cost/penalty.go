package cost

import (
	"fmt"

	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/tensor"
)

type PenaltyKind int

const (
	L1Penalty PenaltyKind = iota
	L2Penalty
)

func ParsePenalty(tag string) (PenaltyKind, error) {
	switch tag {
	case "l1":
		return L1Penalty, nil
	case "l2":
		return L2Penalty, nil
	default:
		return 0, fmt.Errorf("%w: penalty %q", ErrUnknown, tag)
	}
}

// L1 is the sum of absolute values.
func L1[T tensor.Float](x *tensor.Dense[T]) T {
	var s T
	for _, v := range x.Data {
		s += mathx.Abs(v)
	}
	return s
}

// L2 is the sum of squares (the squared L2 norm).
func L2[T tensor.Float](x *tensor.Dense[T]) T {
	var s T
	for _, v := range x.Data {
		s += v * v
	}
	return s
}

// Penalty sums the chosen penalty over xs.
func Penalty[T tensor.Float](k PenaltyKind, xs ...*tensor.Dense[T]) (T, error) {
	var f func(*tensor.Dense[T]) T
	switch k {
	case L1Penalty:
		f = L1[T]
	case L2Penalty:
		f = L2[T]
	default:
		return 0, fmt.Errorf("%w: penalty %d", ErrUnknown, int(k))
	}
	var total T
	for _, x := range xs {
		total += f(x)
	}
	return total, nil
}
