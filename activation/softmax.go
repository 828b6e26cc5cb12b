package activation

import (
	"fmt"

	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/tensor"
)

// ChannelAxis returns the axis holding class scores for a tensor of the given rank:
// (batch, class), (time, batch, class), (batch, class, row, col) and
// (time, batch, class, row, col).
func ChannelAxis(rank int) (int, error) {
	switch rank {
	case 2, 4:
		return 1, nil
	case 3, 5:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: no channel axis for rank %d", tensor.ErrRank, rank)
	}
}

// StableSoftmax normalizes every row of a rank 2 tensor.
func StableSoftmax[T tensor.Float](x *tensor.Dense[T]) (*tensor.Dense[T], error) {
	if x.Rank() != 2 {
		return nil, fmt.Errorf("%w: stable softmax needs rank 2, got %v", tensor.ErrRank, x.Shape)
	}
	return SoftmaxAxis(x, 1)
}

// ChannelSoftmax applies softmax over the channel axis of a rank 2 to 5 tensor.
func ChannelSoftmax[T tensor.Float](x *tensor.Dense[T]) (*tensor.Dense[T], error) {
	axis, err := ChannelAxis(x.Rank())
	if err != nil {
		return nil, err
	}
	return SoftmaxAxis(x, axis)
}

// SoftmaxAxis applies softmax along axis. The maximum of each slice is subtracted before
// exponentiating so large logits do not overflow.
func SoftmaxAxis[T tensor.Float](x *tensor.Dense[T], axis int) (*tensor.Dense[T], error) {
	outer, n, inner, err := x.AxisSpan(axis)
	if err != nil {
		return nil, err
	}

	y := tensor.NewZerosLike(x)
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for i := 0; i < inner; i++ {
			maxX := x.Data[base+i] // オーバーフロー対策
			for k := 1; k < n; k++ {
				maxX = max(maxX, x.Data[base+k*inner+i])
			}

			var sumExpX T
			for k := 0; k < n; k++ {
				idx := base + k*inner + i
				e := mathx.Exp(x.Data[idx] - maxX)
				y.Data[idx] = e
				sumExpX += e
			}
			for k := 0; k < n; k++ {
				y.Data[base+k*inner+i] /= sumExpX
			}
		}
	}
	return y, nil
}
