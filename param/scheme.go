package param

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sw965/sparnn/tensor"
)

var ErrUnknownScheme = errors.New("param: unknown initialization scheme")

// Scheme selects an initializer with its default scale.
type Scheme int

const (
	GaussianScheme Scheme = iota
	UniformScheme
	OrthoScheme
	NormScheme
	GlorotNormScheme
	GlorotUniformScheme
	HeNormScheme
	HeUniformScheme
	XavierScheme
	ZeroScheme
)

var schemeNames = map[Scheme]string{
	GaussianScheme:      "gaussian",
	UniformScheme:       "uniform",
	OrthoScheme:         "ortho",
	NormScheme:          "norm",
	GlorotNormScheme:    "glorot_norm",
	GlorotUniformScheme: "glorot_uniform",
	HeNormScheme:        "he_norm",
	HeUniformScheme:     "he_uniform",
	XavierScheme:        "xavier",
	ZeroScheme:          "zero",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Init runs the initializer s selects.
func Init[T tensor.Float](s Scheme, rng *rand.Rand, shape tensor.Shape, name string) (Parameter[T], error) {
	switch s {
	case GaussianScheme:
		return Gaussian[T](rng, shape, name)
	case UniformScheme:
		return Uniform[T](rng, shape, name, DefaultUniformScale)
	case OrthoScheme:
		return Ortho[T](rng, shape, name, DefaultOrthoScale)
	case NormScheme:
		return Norm[T](rng, shape, name, DefaultNormScale, false)
	case GlorotNormScheme:
		return GlorotNorm[T](rng, shape, name)
	case GlorotUniformScheme:
		return GlorotUniform[T](rng, shape, name)
	case HeNormScheme:
		return HeNorm[T](rng, shape, name)
	case HeUniformScheme:
		return HeUniform[T](rng, shape, name)
	case XavierScheme:
		return Xavier[T](rng, shape, name)
	case ZeroScheme:
		return Zero[T](shape, name)
	default:
		return Parameter[T]{}, fmt.Errorf("%w: %v", ErrUnknownScheme, s)
	}
}
