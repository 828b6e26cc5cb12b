package mathx

import (
	"math"

	"github.com/chewxy/math32"
)

// Float はテンソルの要素型。
type Float interface {
	float32 | float64
}

func Exp[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return T(math32.Exp(v))
	default:
		return T(math.Exp(float64(x)))
	}
}

func Log[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return T(math32.Log(v))
	default:
		return T(math.Log(float64(x)))
	}
}

func Tanh[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return T(math32.Tanh(v))
	default:
		return T(math.Tanh(float64(x)))
	}
}

func Sqrt[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return T(math32.Sqrt(v))
	default:
		return T(math.Sqrt(float64(x)))
	}
}

func Abs[T Float](x T) T {
	switch v := any(x).(type) {
	case float32:
		return T(math32.Abs(v))
	default:
		return T(math.Abs(float64(x)))
	}
}

func Sigmoid[T Float](x T) T {
	return 1.0 / (1.0 + Exp(-x))
}

func IsFinite[T Float](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Max returns the largest element. xs must not be empty.
func Max[T Float](xs ...T) T {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func Sum[T Float](xs ...T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}
