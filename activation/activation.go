package activation

import (
	"errors"
	"fmt"

	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/tensor"
)

var ErrUnknown = errors.New("activation: unknown activation")

type Kind int

const (
	Identity Kind = iota
	Tanh
	Sigmoid
	ReLU
	Softmax
)

var names = [...]string{
	Identity: "identity",
	Tanh:     "tanh",
	Sigmoid:  "sigmoid",
	ReLU:     "relu",
	Softmax:  "softmax",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

func Parse(tag string) (Kind, error) {
	for k, name := range names {
		if name == tag {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, tag)
}

func Apply[T tensor.Float](x *tensor.Dense[T], k Kind) (*tensor.Dense[T], error) {
	switch k {
	case Identity:
		return x, nil
	case Tanh:
		return x.Map(mathx.Tanh[T]), nil
	case Sigmoid:
		return x.Map(mathx.Sigmoid[T]), nil
	case ReLU:
		return x.Map(func(v T) T { return max(v, 0) }), nil
	case Softmax:
		return ChannelSoftmax(x)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknown, k)
	}
}

// ApplyTag parses tag and applies the activation it names.
func ApplyTag[T tensor.Float](x *tensor.Dense[T], tag string) (*tensor.Dense[T], error) {
	k, err := Parse(tag)
	if err != nil {
		return nil, err
	}
	return Apply(x, k)
}
