package tensor

import (
	"fmt"

	tensor2d32 "github.com/sw965/sparnn/blas32/tensor/2d"
	tensor2d64 "github.com/sw965/sparnn/blas64/tensor/2d"
	"gonum.org/v1/gonum/blas"
)

func transFlag(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// Gemm returns op(a)·op(b) for rank-2 tensors, where op transposes when the matching flag
// is set.
func Gemm[T Float](transA, transB bool, a, b *Dense[T]) (*Dense[T], error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("%w: gemm needs rank 2 operands, got %v and %v", ErrRank, a.Shape, b.Shape)
	}
	m, k := a.Shape[0], a.Shape[1]
	if transA {
		m, k = k, m
	}
	kb, n := b.Shape[0], b.Shape[1]
	if transB {
		kb, n = n, kb
	}
	if k != kb {
		return nil, fmt.Errorf("%w: gemm inner dimensions %d and %d", ErrShape, k, kb)
	}

	tA, tB := transFlag(transA), transFlag(transB)
	switch ad := any(a.Data).(type) {
	case []float32:
		bd := any(b.Data).([]float32)
		y := tensor2d32.Dot(tA, tB,
			tensor2d32.FromData(a.Shape[0], a.Shape[1], ad),
			tensor2d32.FromData(b.Shape[0], b.Shape[1], bd))
		return &Dense[T]{Shape: Shape{m, n}, Data: any(y.Data).([]T)}, nil
	case []float64:
		bd := any(b.Data).([]float64)
		y := tensor2d64.Dot(tA, tB,
			tensor2d64.FromData(a.Shape[0], a.Shape[1], ad),
			tensor2d64.FromData(b.Shape[0], b.Shape[1], bd))
		return &Dense[T]{Shape: Shape{m, n}, Data: any(y.Data).([]T)}, nil
	default:
		panic(fmt.Sprintf("tensor: unsupported element type %T", a.Data))
	}
}

func MatMul[T Float](a, b *Dense[T]) (*Dense[T], error) {
	return Gemm(false, false, a, b)
}
