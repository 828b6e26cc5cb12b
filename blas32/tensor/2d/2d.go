package tensor2d

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

func NewZeros(rows, cols int) blas32.General {
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]float32, rows*cols),
	}
}

// FromData wraps data as a row-major matrix without copying.
func FromData(rows, cols int, data []float32) blas32.General {
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   data,
	}
}

func OpShape(t blas.Transpose, gen blas32.General) (int, int) {
	if t == blas.NoTrans {
		return gen.Rows, gen.Cols
	}
	return gen.Cols, gen.Rows
}

// Dot returns op(a)·op(b). The inner dimensions must agree.
func Dot(tA, tB blas.Transpose, a, b blas32.General) blas32.General {
	m, _ := OpShape(tA, a)
	_, n := OpShape(tB, b)
	y := NewZeros(m, n)
	blas32.Gemm(tA, tB, 1.0, a, b, 0.0, y)
	return y
}
