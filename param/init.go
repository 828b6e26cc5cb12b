// Package param builds the initial values of trainable parameters.
//
// Every initializer consumes draws from the generator it is given and nothing else, so a
// fixed seed reproduces the same parameters. Generators are not safe for concurrent use.
package param

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sw965/sparnn/mathx/randx"
	"github.com/sw965/sparnn/tensor"
	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("param: invalid shape")

const (
	DefaultGaussianStd  = 0.1
	DefaultUniformScale = 0.1
	DefaultNormScale    = 0.1
	DefaultOrthoScale   = 1.0
)

type Parameter[T tensor.Float] struct {
	Name  string
	Value *tensor.Dense[T]
}

func requireMatrix(shape tensor.Shape) error {
	if len(shape) != 2 {
		return fmt.Errorf("%w: want a rank 2 shape, got %v", ErrShape, shape)
	}
	return shape.Validate()
}

func fill[T tensor.Float](shape tensor.Shape, draw func() float64) *tensor.Dense[T] {
	d := tensor.NewZeros[T](shape)
	for i := range d.Data {
		d.Data[i] = T(draw())
	}
	return d
}

// Fans returns (fan_in, fan_out). A rank 2 shape is (in, out); any other shape is treated
// as (out, in...).
func Fans(shape tensor.Shape) (int, int) {
	if len(shape) == 2 {
		return shape[0], shape[1]
	}
	return shape[1:].NumElements(), shape[0]
}

// Gaussian draws from N(0, 0.1²) for any shape.
func Gaussian[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if err := shape.Validate(); err != nil {
		return Parameter[T]{}, err
	}
	v := fill[T](shape, func() float64 { return randx.Normal(rng, 0, DefaultGaussianStd) })
	return Parameter[T]{Name: name, Value: v}, nil
}

// Uniform draws from U(-scale, scale).
func Uniform[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string, scale float64) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	v := fill[T](shape, func() float64 { return randx.Uniform(rng, -scale, scale) })
	return Parameter[T]{Name: name, Value: v}, nil
}

// Ortho returns scale·U where U holds the left singular vectors of a N(0, 1) square matrix,
// so UᵀU = scale²·I.
func Ortho[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string, scale float64) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	if shape[0] != shape[1] {
		return Parameter[T]{}, fmt.Errorf("%w: orthogonal init needs a square shape, got %v", ErrShape, shape)
	}

	n := shape[0]
	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w.Set(i, j, rng.NormFloat64())
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(w, mat.SVDFull); !ok {
		return Parameter[T]{}, fmt.Errorf("param: SVD of %s did not converge", name)
	}
	var u mat.Dense
	svd.UTo(&u)

	v := tensor.NewZeros[T](shape)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v.Data[i*n+j] = T(u.At(i, j) * scale)
		}
	}
	return Parameter[T]{Name: name, Value: v}, nil
}

// Norm draws from N(0, scale²). With ortho set and a square shape it defers to Ortho.
func Norm[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string, scale float64, ortho bool) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	if ortho && shape[0] == shape[1] {
		return Ortho[T](rng, shape, name, scale)
	}
	v := fill[T](shape, func() float64 { return randx.Normal(rng, 0, scale) })
	return Parameter[T]{Name: name, Value: v}, nil
}

// GlorotNorm: Glorot & Bengio, AISTATS 2010.
func GlorotNorm[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	fanIn, fanOut := Fans(shape)
	return Norm[T](rng, shape, name, math.Sqrt(2.0/float64(fanIn+fanOut)), false)
}

func GlorotUniform[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	fanIn, fanOut := Fans(shape)
	return Uniform[T](rng, shape, name, math.Sqrt(6.0/float64(fanIn+fanOut)))
}

// HeNorm: He et al., arXiv:1502.01852.
func HeNorm[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	fanIn, _ := Fans(shape)
	return Norm[T](rng, shape, name, math.Sqrt(2.0/float64(fanIn)), false)
}

func HeUniform[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if err := requireMatrix(shape); err != nil {
		return Parameter[T]{}, err
	}
	fanIn, _ := Fans(shape)
	return Uniform[T](rng, shape, name, math.Sqrt(6.0/float64(fanIn)))
}

// Xavier draws from U(-1/sqrt(shape[1]), 1/sqrt(shape[1])) for any shape of rank 2 or more.
func Xavier[T tensor.Float](rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	if len(shape) < 2 {
		return Parameter[T]{}, fmt.Errorf("%w: xavier needs rank 2 or more, got %v", ErrShape, shape)
	}
	if err := shape.Validate(); err != nil {
		return Parameter[T]{}, err
	}
	bound := 1.0 / math.Sqrt(float64(shape[1]))
	v := fill[T](shape, func() float64 { return randx.Uniform(rng, -bound, bound) })
	return Parameter[T]{Name: name, Value: v}, nil
}

func Zero[T tensor.Float](shape tensor.Shape, name string) (Parameter[T], error) {
	if err := shape.Validate(); err != nil {
		return Parameter[T]{}, err
	}
	return Parameter[T]{Name: name, Value: tensor.NewZeros[T](shape)}, nil
}
