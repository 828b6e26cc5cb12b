package cost_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/sparnn/cost"
	"github.com/sw965/sparnn/tensor"
)

func mustNew[T tensor.Float](t *testing.T, shape tensor.Shape, data []T) *tensor.Dense[T] {
	t.Helper()
	d, err := tensor.New(shape, data)
	require.NoError(t, err)
	return d
}

func TestParse(t *testing.T) {
	k, err := cost.Parse("CategoricalCrossEntropy")
	require.NoError(t, err)
	assert.Equal(t, cost.CategoricalCrossEntropy, k)

	_, err = cost.Parse("Hinge")
	require.ErrorIs(t, err, cost.ErrUnknown)
}

func TestCategoricalCrossEntropy_Rank2(t *testing.T) {
	pred := mustNew(t, tensor.Shape{2, 3}, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
	})
	target := mustNew(t, tensor.Shape{2}, []float64{0, 2})

	loss, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target)
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.7)-math.Log(0.8), loss, 1e-12)
}

func TestCategoricalCrossEntropy_Clips(t *testing.T) {
	pred := mustNew(t, tensor.Shape{1, 2}, []float32{0, 1})
	target := mustNew(t, tensor.Shape{1, 1}, []float32{0})

	loss, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target, cost.WithEpsilon[float32](1e-3))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(1e-3), loss, 1e-4)
	assert.False(t, math.IsInf(float64(loss), 0))
}

func TestCategoricalCrossEntropy_Rank5MatchesRank2(t *testing.T) {
	// (time=2, batch=1, class=3, row=1, col=2)
	pred := mustNew(t, tensor.Shape{2, 1, 3, 1, 2}, []float64{
		0.7, 0.2,
		0.2, 0.3,
		0.1, 0.5,

		0.1, 0.6,
		0.1, 0.2,
		0.8, 0.2,
	})
	target := mustNew(t, tensor.Shape{2, 1, 1, 1, 2}, []float64{0, 2, 2, 0})

	loss, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target)
	require.NoError(t, err)
	want := -math.Log(0.7) - math.Log(0.5) - math.Log(0.8) - math.Log(0.6)
	assert.InDelta(t, want, loss, 1e-12)

	mask := mustNew(t, tensor.Shape{2, 1}, []float64{1, 0})
	masked, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target, cost.WithMask(mask))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.7)-math.Log(0.5), masked, 1e-12)

	ones := mustNew(t, tensor.Shape{2, 1}, []float64{1, 1})
	full, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target, cost.WithMask(ones))
	require.NoError(t, err)
	assert.InDelta(t, loss, full, 1e-12)
}

func TestCategoricalCrossEntropy_Errors(t *testing.T) {
	pred := mustNew(t, tensor.Shape{2, 3}, []float64{0.7, 0.2, 0.1, 0.1, 0.1, 0.8})

	_, err := cost.Compute(cost.CategoricalCrossEntropy, pred, mustNew(t, tensor.Shape{3}, []float64{0, 1, 2}))
	require.ErrorIs(t, err, tensor.ErrShape)

	_, err = cost.Compute(cost.CategoricalCrossEntropy, pred, mustNew(t, tensor.Shape{2}, []float64{0, 3}))
	require.ErrorIs(t, err, tensor.ErrShape)

	mask := mustNew(t, tensor.Shape{2, 1}, []float64{1, 1})
	_, err = cost.Compute(cost.CategoricalCrossEntropy, pred, mustNew(t, tensor.Shape{2}, []float64{0, 2}), cost.WithMask(mask))
	require.ErrorIs(t, err, tensor.ErrRank)

	_, err = cost.Compute(cost.CategoricalCrossEntropy, pred, mustNew(t, tensor.Shape{2}, []float64{0, 2}),
		cost.WithMask(mustNew(t, tensor.Shape{2}, []float64{1, 1})))
	require.ErrorIs(t, err, tensor.ErrRank)
}

func TestSquaredLoss(t *testing.T) {
	pred := mustNew(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	target := mustNew(t, tensor.Shape{2, 2}, []float32{0, 2, 5, 4})
	loss, err := cost.Compute(cost.SquaredLoss, pred, target)
	require.NoError(t, err)
	assert.Equal(t, float32(5), loss)

	_, err = cost.Compute(cost.SquaredLoss, pred, mustNew(t, tensor.Shape{4}, []float32{0, 2, 5, 4}))
	require.ErrorIs(t, err, tensor.ErrShape)
}

func TestSquaredLoss_Masked(t *testing.T) {
	// (time=2, batch=2, 1, 1, 2)
	pred := mustNew(t, tensor.Shape{2, 2, 1, 1, 2}, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	target := tensor.NewZeros[float64](tensor.Shape{2, 2, 1, 1, 2})
	mask := mustNew(t, tensor.Shape{2, 2}, []float64{1, 0, 0.5, 1})

	loss, err := cost.Compute(cost.SquaredLoss, pred, target, cost.WithMask(mask))
	require.NoError(t, err)
	assert.InDelta(t, 2.0+0.5*18+32, loss, 1e-12)

	_, err = cost.Compute(cost.SquaredLoss, mustNew(t, tensor.Shape{2, 2}, []float64{1, 2, 3, 4}),
		mustNew(t, tensor.Shape{2, 2}, []float64{1, 2, 3, 4}), cost.WithMask(mask))
	require.ErrorIs(t, err, tensor.ErrRank)
}

func TestBinaryCrossEntropy(t *testing.T) {
	pred := mustNew(t, tensor.Shape{2, 1, 2}, []float64{0.9, 0.2, 0.6, 0.3})
	target := mustNew(t, tensor.Shape{2, 1, 2}, []float64{1, 0, 0, 1})

	loss, err := cost.Compute(cost.BinaryCrossEntropy, pred, target)
	require.NoError(t, err)
	want := -math.Log(0.9) - math.Log(0.8) - math.Log(0.4) - math.Log(0.3)
	assert.InDelta(t, want, loss, 1e-12)

	mask := mustNew(t, tensor.Shape{2, 1}, []float64{0, 1})
	masked, err := cost.Compute(cost.BinaryCrossEntropy, pred, target, cost.WithMask(mask))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.4)-math.Log(0.3), masked, 1e-12)

	saturated := mustNew(t, tensor.Shape{1, 1, 2}, []float64{0, 1})
	inf, err := cost.Compute(cost.BinaryCrossEntropy, saturated, mustNew(t, tensor.Shape{1, 1, 2}, []float64{1, 0}))
	require.NoError(t, err)
	assert.False(t, math.IsInf(inf, 0))
}

func TestBinaryCrossEntropy_MaskedRank5(t *testing.T) {
	// (time=2, batch=1, 1, 1, 2)
	pred := mustNew(t, tensor.Shape{2, 1, 1, 1, 2}, []float64{0.9, 0.2, 0.6, 0.3})
	target := mustNew(t, tensor.Shape{2, 1, 1, 1, 2}, []float64{1, 0, 0, 1})
	mask := mustNew(t, tensor.Shape{2, 1}, []float64{1, 0})

	loss, err := cost.Compute(cost.BinaryCrossEntropy, pred, target, cost.WithMask(mask))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.9)-math.Log(0.8), loss, 1e-12)
}

func TestCategoricalCrossEntropy_MaskedRank3(t *testing.T) {
	// (time=2, batch=1, class=3)
	pred := mustNew(t, tensor.Shape{2, 1, 3}, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
	})
	target := mustNew(t, tensor.Shape{2, 1}, []float64{0, 2})

	loss, err := cost.Compute(cost.CategoricalCrossEntropy, pred, target,
		cost.WithMask(mustNew(t, tensor.Shape{2, 1}, []float64{1, 0})))
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.7), loss, 1e-12)

	loss, err = cost.Compute(cost.CategoricalCrossEntropy, pred, target,
		cost.WithMask(mustNew(t, tensor.Shape{2, 1}, []float64{0.5, 1})))
	require.NoError(t, err)
	assert.InDelta(t, -0.5*math.Log(0.7)-math.Log(0.8), loss, 1e-12)

	_, err = cost.Compute(cost.CategoricalCrossEntropy, pred, target,
		cost.WithMask(mustNew(t, tensor.Shape{1, 2}, []float64{1, 1})))
	require.ErrorIs(t, err, tensor.ErrShape)
}

func TestNegativeLogCosine(t *testing.T) {
	pred := mustNew(t, tensor.Shape{1, 2, 2, 1, 1}, []float64{1, 0, 1, 1})
	target := mustNew(t, tensor.Shape{1, 2, 2, 1, 1}, []float64{2, 0, 1, 0})

	loss, err := cost.Compute(cost.NegativeLogCosine, pred, target)
	require.NoError(t, err)
	// first pair is parallel (cos=1), second has cos=1/sqrt(2)
	assert.InDelta(t, -math.Log(1/math.Sqrt(2)), loss, 1e-12)

	mask := mustNew(t, tensor.Shape{1, 2}, []float64{1, 0})
	masked, err := cost.Compute(cost.NegativeLogCosine, pred, target, cost.WithMask(mask))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, masked, 1e-12)

	_, err = cost.Compute(cost.NegativeLogCosine, mustNew(t, tensor.Shape{2}, []float64{1, 1}), mustNew(t, tensor.Shape{2}, []float64{1, 1}))
	require.ErrorIs(t, err, tensor.ErrRank)
}

func TestPenalty(t *testing.T) {
	a := mustNew(t, tensor.Shape{2}, []float32{-1, 2})
	b := mustNew(t, tensor.Shape{1}, []float32{3})

	l1, err := cost.Penalty(cost.L1Penalty, a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(6), l1)

	k, err := cost.ParsePenalty("l2")
	require.NoError(t, err)
	l2, err := cost.Penalty(k, a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(14), l2)

	_, err = cost.ParsePenalty("l3")
	require.ErrorIs(t, err, cost.ErrUnknown)
}
