package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/sparnn/mathx/randx"
	"github.com/sw965/sparnn/sampling"
	"github.com/sw965/sparnn/tensor"
)

func TestArgmax_Rank4(t *testing.T) {
	// (batch=1, class=3, row=1, col=2)
	x, err := tensor.New(tensor.Shape{1, 3, 1, 2}, []float32{
		0.1, 0.7,
		0.6, 0.2,
		0.3, 0.1,
	})
	require.NoError(t, err)

	y, err := sampling.Sample(x, sampling.Argmax, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 1, 2}, y.Shape)
	assert.Equal(t, []float32{1, 0}, y.Data)
}

func TestArgmax_Rank5(t *testing.T) {
	x, err := tensor.New(tensor.Shape{2, 1, 2, 1, 1}, []float64{0.2, 0.8, 0.9, 0.1})
	require.NoError(t, err)

	k, err := sampling.Parse("argmax")
	require.NoError(t, err)
	y, err := sampling.Sample(x, k, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 1, 1, 1}, y.Shape)
	assert.Equal(t, []float64{1, 0}, y.Data)
}

func TestArgmax_TiesPickFirst(t *testing.T) {
	x, err := tensor.New(tensor.Shape{2, 3, 1, 1}, []float32{
		0.4, 0.4, 0.2,
		0.1, 0.7, 0.7,
	})
	require.NoError(t, err)
	y, err := sampling.Sample(x, sampling.Argmax, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, y.Data)

	zeros := tensor.NewZeros[float64](tensor.Shape{1, 1, 4, 1, 1})
	y, err = sampling.Sample(zeros, sampling.Argmax, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, y.Data)
}

func TestMultinomial(t *testing.T) {
	x, err := tensor.New(tensor.Shape{1, 3, 1, 1}, []float64{0, 1, 0})
	require.NoError(t, err)

	rng := randx.New(3)
	for i := 0; i < 20; i++ {
		y, err := sampling.Sample(x, sampling.Multinomial, rng)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, y.Data)
	}

	counts := map[float64]int{}
	even, err := tensor.New(tensor.Shape{1, 2, 1, 1}, []float64{1, 1})
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		y, err := sampling.Sample(even, sampling.Multinomial, rng)
		require.NoError(t, err)
		counts[y.Data[0]]++
	}
	assert.Greater(t, counts[0], 400)
	assert.Greater(t, counts[1], 400)
}

func TestErrors(t *testing.T) {
	_, err := sampling.Sample(tensor.NewZeros[float32](tensor.Shape{2, 3}), sampling.Argmax, nil)
	require.ErrorIs(t, err, tensor.ErrRank)

	_, err = sampling.Sample(tensor.NewZeros[float32](tensor.Shape{1, 2, 1, 1}), sampling.Multinomial, randx.NewDefault())
	require.Error(t, err)

	_, err = sampling.Parse("beam")
	require.ErrorIs(t, err, sampling.ErrUnknown)
}
