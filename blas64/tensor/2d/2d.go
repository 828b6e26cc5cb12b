package tensor2d

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

func NewZeros(rows, cols int) blas64.General {
	return blas64.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]float64, rows*cols),
	}
}

// FromData wraps data as a row-major matrix without copying.
func FromData(rows, cols int, data []float64) blas64.General {
	return blas64.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   data,
	}
}

func OpShape(t blas.Transpose, gen blas64.General) (int, int) {
	if t == blas.NoTrans {
		return gen.Rows, gen.Cols
	}
	return gen.Cols, gen.Rows
}

func Dot(tA, tB blas.Transpose, a, b blas64.General) blas64.General {
	m, _ := OpShape(tA, a)
	_, n := OpShape(tB, b)
	y := NewZeros(m, n)
	blas64.Gemm(tA, tB, 1.0, a, b, 0.0, y)
	return y
}
