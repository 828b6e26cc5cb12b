// Package patch folds spatial p×p blocks of a frame sequence into channels and back.
package patch

import (
	"errors"
	"fmt"

	"github.com/sw965/sparnn/tensor"
)

var ErrIndivisible = errors.New("patch: dimension not divisible by patch size")

func check(shape tensor.Shape, p int) error {
	if len(shape) != 5 {
		return fmt.Errorf("%w: patch reshape needs (batch, time, channel, row, col), got %v", tensor.ErrRank, shape)
	}
	if p < 1 {
		return fmt.Errorf("%w: patch size %d", ErrIndivisible, p)
	}
	return nil
}

// Reshape maps (B, T, C, H, W) to (B, T, C·p·p, H/p, W/p). Pixel (y, x) of channel c lands
// in channel c·p² + (y%p)·p + x%p at (y/p, x/p).
func Reshape[T tensor.Float](x *tensor.Dense[T], p int) (*tensor.Dense[T], error) {
	if err := check(x.Shape, p); err != nil {
		return nil, err
	}
	b, t, c, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3], x.Shape[4]
	if height%p != 0 || width%p != 0 {
		return nil, fmt.Errorf("%w: frame %dx%d, patch %d", ErrIndivisible, height, width, p)
	}
	h, w := height/p, width/p

	blocks, err := x.Reshape(tensor.Shape{b, t, c, h, p, w, p})
	if err != nil {
		return nil, err
	}
	blocks, err = blocks.Transpose(0, 1, 2, 4, 6, 3, 5)
	if err != nil {
		return nil, err
	}
	return blocks.Reshape(tensor.Shape{b, t, c * p * p, h, w})
}

// ReshapeBack is the inverse of Reshape.
func ReshapeBack[T tensor.Float](x *tensor.Dense[T], p int) (*tensor.Dense[T], error) {
	if err := check(x.Shape, p); err != nil {
		return nil, err
	}
	b, t, pc, h, w := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3], x.Shape[4]
	if pc%(p*p) != 0 {
		return nil, fmt.Errorf("%w: %d channels, patch %d", ErrIndivisible, pc, p)
	}
	c := pc / (p * p)

	blocks, err := x.Reshape(tensor.Shape{b, t, c, p, p, h, w})
	if err != nil {
		return nil, err
	}
	blocks, err = blocks.Transpose(0, 1, 2, 5, 3, 6, 4)
	if err != nil {
		return nil, err
	}
	return blocks.Reshape(tensor.Shape{b, t, c, h * p, w * p})
}
