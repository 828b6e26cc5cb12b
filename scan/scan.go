// Package scan unrolls a recurrent step function over a fixed number of steps.
package scan

import (
	"errors"
	"fmt"

	"github.com/sw965/sparnn/tensor"
)

var ErrArity = errors.New("scan: step output arity changed")

// StepFunc receives, in order, the current slice of every sequence, the previous step's
// outputs (the initial state on the first step) and the non-sequence arguments.
type StepFunc[T tensor.Float] func(args ...*tensor.Dense[T]) ([]*tensor.Dense[T], error)

// Single adapts a step function with exactly one output.
func Single[T tensor.Float](f func(args ...*tensor.Dense[T]) (*tensor.Dense[T], error)) StepFunc[T] {
	return func(args ...*tensor.Dense[T]) ([]*tensor.Dense[T], error) {
		y, err := f(args...)
		if err != nil {
			return nil, err
		}
		return []*tensor.Dense[T]{y}, nil
	}
}

// Unroll calls fn nSteps times, iterating over axis 0 of every sequence, and stacks each
// output across steps in the order the steps ran. With goBackwards the iteration starts at
// index nSteps-1.
//
// When outputsInfo is empty no recurrent state is threaded: fn only receives the sequence
// slices and nonSequences. Otherwise fn must return exactly len(outputsInfo) tensors.
func Unroll[T tensor.Float](
	fn StepFunc[T],
	sequences, outputsInfo, nonSequences []*tensor.Dense[T],
	nSteps int,
	goBackwards bool,
) ([]*tensor.Dense[T], error) {
	if nSteps < 1 {
		return nil, fmt.Errorf("scan: n_steps must be positive, got %d", nSteps)
	}
	for k, s := range sequences {
		if s.Rank() == 0 || s.Shape[0] < nSteps {
			return nil, fmt.Errorf("%w: sequence %d with shape %v is shorter than %d steps", tensor.ErrShape, k, s.Shape, nSteps)
		}
	}

	recurrent := len(outputsInfo) > 0
	prev := outputsInfo
	var outputs [][]*tensor.Dense[T]
	for step := 0; step < nSteps; step++ {
		i := step
		if goBackwards {
			i = nSteps - 1 - step
		}

		args := make([]*tensor.Dense[T], 0, len(sequences)+len(prev)+len(nonSequences))
		for _, s := range sequences {
			x, err := s.Index(i)
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		if recurrent {
			args = append(args, prev...)
		}
		args = append(args, nonSequences...)

		out, err := fn(args...)
		if err != nil {
			return nil, fmt.Errorf("scan: step %d: %w", i, err)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: step %d returned nothing", ErrArity, i)
		}
		if recurrent && len(out) != len(outputsInfo) {
			return nil, fmt.Errorf("%w: step %d returned %d outputs for %d states", ErrArity, i, len(out), len(outputsInfo))
		}
		if len(outputs) > 0 && len(out) != len(outputs[0]) {
			return nil, fmt.Errorf("%w: step %d returned %d outputs, first step returned %d", ErrArity, i, len(out), len(outputs[0]))
		}
		outputs = append(outputs, out)
		prev = out
	}

	stacked := make([]*tensor.Dense[T], len(outputs[0]))
	column := make([]*tensor.Dense[T], len(outputs))
	for j := range stacked {
		for s, out := range outputs {
			column[s] = out[j]
		}
		y, err := tensor.Stack(column)
		if err != nil {
			return nil, fmt.Errorf("scan: output %d: %w", j, err)
		}
		stacked[j] = y
	}
	return stacked, nil
}
