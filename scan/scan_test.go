package scan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/sparnn/scan"
	"github.com/sw965/sparnn/tensor"
)

func sequence(t *testing.T, steps int) *tensor.Dense[float32] {
	t.Helper()
	d := tensor.NewZeros[float32](tensor.Shape{steps, 2})
	for i := range d.Data {
		d.Data[i] = float32(i + 1)
	}
	return d
}

func TestUnroll_BackwardsReversesStatelessSteps(t *testing.T) {
	xs := sequence(t, 5)
	w, err := tensor.New(tensor.Shape{2}, []float32{2, -1})
	require.NoError(t, err)

	step := func(args ...*tensor.Dense[float32]) ([]*tensor.Dense[float32], error) {
		x, w := args[0], args[1]
		y, err := tensor.Mul(x, w)
		if err != nil {
			return nil, err
		}
		return []*tensor.Dense[float32]{y, x.Scale(3)}, nil
	}

	fwd, err := scan.Unroll(step, []*tensor.Dense[float32]{xs}, nil, []*tensor.Dense[float32]{w}, 5, false)
	require.NoError(t, err)
	bwd, err := scan.Unroll(step, []*tensor.Dense[float32]{xs}, nil, []*tensor.Dense[float32]{w}, 5, true)
	require.NoError(t, err)
	require.Len(t, fwd, 2)
	require.Len(t, bwd, 2)

	for j := range fwd {
		assert.Equal(t, tensor.Shape{5, 2}, fwd[j].Shape)
		for s := 0; s < 5; s++ {
			a, err := fwd[j].Index(s)
			require.NoError(t, err)
			b, err := bwd[j].Index(4 - s)
			require.NoError(t, err)
			assert.Equal(t, a.Data, b.Data)
		}
	}
}

func TestUnroll_ThreadsState(t *testing.T) {
	xs := sequence(t, 3)
	h0 := tensor.NewZeros[float32](tensor.Shape{2})

	cumsum := scan.Single(func(args ...*tensor.Dense[float32]) (*tensor.Dense[float32], error) {
		return tensor.Add(args[0], args[1])
	})

	out, err := scan.Unroll(cumsum, []*tensor.Dense[float32]{xs}, []*tensor.Dense[float32]{h0}, nil, 3, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float32{1, 2, 4, 6, 9, 12}, out[0].Data)

	out, err = scan.Unroll(cumsum, []*tensor.Dense[float32]{xs}, []*tensor.Dense[float32]{h0}, nil, 3, true)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6, 8, 10, 9, 12}, out[0].Data)
}

func TestUnroll_OnlyFirstSteps(t *testing.T) {
	xs := sequence(t, 4)
	identity := scan.Single(func(args ...*tensor.Dense[float32]) (*tensor.Dense[float32], error) {
		return args[0], nil
	})
	out, err := scan.Unroll(identity, []*tensor.Dense[float32]{xs}, nil, nil, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 1, 2}, out[0].Data)
}

func TestUnroll_Errors(t *testing.T) {
	xs := sequence(t, 2)
	h0 := tensor.NewZeros[float32](tensor.Shape{2})
	noop := func(args ...*tensor.Dense[float32]) ([]*tensor.Dense[float32], error) {
		return []*tensor.Dense[float32]{args[0], args[0]}, nil
	}

	_, err := scan.Unroll(noop, []*tensor.Dense[float32]{xs}, nil, nil, 3, false)
	require.ErrorIs(t, err, tensor.ErrShape)

	_, err = scan.Unroll(noop, []*tensor.Dense[float32]{xs}, nil, nil, 0, false)
	require.Error(t, err)

	_, err = scan.Unroll(noop, []*tensor.Dense[float32]{xs}, []*tensor.Dense[float32]{h0}, nil, 2, false)
	require.ErrorIs(t, err, scan.ErrArity)

	boom := errors.New("boom")
	failing := func(args ...*tensor.Dense[float32]) ([]*tensor.Dense[float32], error) {
		return nil, boom
	}
	_, err = scan.Unroll(failing, []*tensor.Dense[float32]{xs}, nil, nil, 2, false)
	require.ErrorIs(t, err, boom)
}
