// Package conv implements 2D convolution over (batch, channel, row, col) tensors.
package conv

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sw965/omw/parallel"
	"github.com/sw965/sparnn/tensor"
)

var ErrFilter = errors.New("conv: invalid filter")

type BorderMode int

const (
	Valid BorderMode = iota
	Full
)

func (m BorderMode) String() string {
	switch m {
	case Valid:
		return "valid"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("BorderMode(%d)", int(m))
	}
}

func ParseBorderMode(tag string) (BorderMode, error) {
	switch tag {
	case "valid":
		return Valid, nil
	case "full":
		return Full, nil
	default:
		return 0, fmt.Errorf("conv: unknown border mode %q", tag)
	}
}

type config struct {
	mode       BorderMode
	strideRows int
	strideCols int
	p          int
}

type Option func(*config)

func WithBorderMode(m BorderMode) Option {
	return func(c *config) { c.mode = m }
}

// WithSubsample sets the output stride along rows and cols.
func WithSubsample(rows, cols int) Option {
	return func(c *config) {
		c.strideRows = rows
		c.strideCols = cols
	}
}

// WithParallel sets how many batch items are convolved concurrently.
func WithParallel(p int) Option {
	return func(c *config) { c.p = p }
}

func checkOperands[T tensor.Float](input, filters *tensor.Dense[T]) error {
	if input.Rank() != 4 || filters.Rank() != 4 {
		return fmt.Errorf("%w: conv2d needs rank 4 input and filters, got %v and %v", tensor.ErrRank, input.Shape, filters.Shape)
	}
	if input.Shape[1] != filters.Shape[1] {
		return fmt.Errorf("%w: input has %d channels, filters expect %d", tensor.ErrShape, input.Shape[1], filters.Shape[1])
	}
	return nil
}

func OutputSize(in, filter, stride int) int {
	return (in-filter)/stride + 1
}

// Conv2D convolves input (N, C, H, W) with filters (F, C, fh, fw). The filters are flipped
// along both spatial axes before sliding, so the result is a true convolution.
func Conv2D[T tensor.Float](input, filters *tensor.Dense[T], opts ...Option) (*tensor.Dense[T], error) {
	cfg := config{mode: Valid, strideRows: 1, strideCols: 1, p: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkOperands(input, filters); err != nil {
		return nil, err
	}
	if cfg.strideRows < 1 || cfg.strideCols < 1 {
		return nil, fmt.Errorf("conv: subsample must be positive, got (%d, %d)", cfg.strideRows, cfg.strideCols)
	}
	if cfg.p < 1 {
		cfg.p = 1
	}

	fh, fw := filters.Shape[2], filters.Shape[3]
	if fh == 1 && fw == 1 && cfg.strideRows == 1 && cfg.strideCols == 1 {
		return Tensor4Dot(input, filters)
	}

	switch cfg.mode {
	case Valid:
	case Full:
		var err error
		input, err = Pad(input, fh-1, fh-1, fw-1, fw-1, nil)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("conv: unknown border mode %v", cfg.mode)
	}

	n, chs, rows, cols := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	if rows < fh || cols < fw {
		return nil, fmt.Errorf("%w: %dx%d filter larger than %dx%d input", ErrFilter, fh, fw, rows, cols)
	}
	outRows := OutputSize(rows, fh, cfg.strideRows)
	outCols := OutputSize(cols, fw, cfg.strideCols)

	w, err := flip(filters).Flatten(2)
	if err != nil {
		return nil, err
	}

	nf := filters.Shape[0]
	out := tensor.NewZeros[T](tensor.Shape{n, nf, outRows, outCols})
	itemSize := chs * rows * cols
	outSize := nf * outRows * outCols
	err = parallel.For(n, cfg.p, func(workerId, idx int) error {
		img := input.Data[idx*itemSize : (idx+1)*itemSize]
		col := Im2Col(img, chs, rows, cols, fh, fw, cfg.strideRows, cfg.strideCols)
		y, err := tensor.Gemm(false, true, w, col)
		if err != nil {
			return err
		}
		copy(out.Data[idx*outSize:(idx+1)*outSize], y.Data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Im2Col lays out every receptive field of one (chs, rows, cols) image as a row of length
// chs·fh·fw, ordered by channel then filter row then filter col.
func Im2Col[T tensor.Float](img []T, chs, rows, cols, fh, fw, strideRows, strideCols int) *tensor.Dense[T] {
	outRows := OutputSize(rows, fh, strideRows)
	outCols := OutputSize(cols, fw, strideCols)
	if len(img) != chs*rows*cols {
		panic("conv: Im2Col image size mismatch")
	}

	newCols := chs * fh * fw
	data := make([]T, outRows*outCols*newCols)
	newIdx := 0
	for or := 0; or < outRows; or++ {
		baseRow := or * strideRows
		for oc := 0; oc < outCols; oc++ {
			baseCol := oc * strideCols
			for ch := 0; ch < chs; ch++ {
				for fr := 0; fr < fh; fr++ {
					rowStart := (ch*rows+baseRow+fr)*cols + baseCol
					copy(data[newIdx:newIdx+fw], img[rowStart:rowStart+fw])
					newIdx += fw
				}
			}
		}
	}
	return &tensor.Dense[T]{Shape: tensor.Shape{outRows * outCols, newCols}, Data: data}
}

func flip[T tensor.Float](filters *tensor.Dense[T]) *tensor.Dense[T] {
	out := tensor.NewZerosLike(filters)
	fh, fw := filters.Shape[2], filters.Shape[3]
	plane := fh * fw
	for base := 0; base < len(filters.Data); base += plane {
		for r := 0; r < fh; r++ {
			for c := 0; c < fw; c++ {
				out.Data[base+r*fw+c] = filters.Data[base+(fh-1-r)*fw+(fw-1-c)]
			}
		}
	}
	return out
}

// Tensor4Dot applies 1×1 filters (F, C, 1, 1) as a channel mix:
// y[n, f, h, w] = Σ_c filters[f, c]·input[n, c, h, w].
func Tensor4Dot[T tensor.Float](input, filters *tensor.Dense[T]) (*tensor.Dense[T], error) {
	if err := checkOperands(input, filters); err != nil {
		return nil, err
	}
	if filters.Shape[2] != 1 || filters.Shape[3] != 1 {
		return nil, fmt.Errorf("%w: tensor4dot needs 1x1 filters, got %v", ErrFilter, filters.Shape)
	}
	w, err := filters.Flatten(2)
	if err != nil {
		return nil, err
	}

	n, chs, rows, cols := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	nf := filters.Shape[0]
	plane := rows * cols
	out := tensor.NewZeros[T](tensor.Shape{n, nf, rows, cols})
	for i := 0; i < n; i++ {
		x := &tensor.Dense[T]{
			Shape: tensor.Shape{chs, plane},
			Data:  input.Data[i*chs*plane : (i+1)*chs*plane],
		}
		y, err := tensor.MatMul(w, x)
		if err != nil {
			return nil, err
		}
		copy(out.Data[i*nf*plane:], y.Data)
	}
	return out, nil
}

// Pad surrounds every (row, col) plane of a rank-4 tensor with a border. The border of
// channel c is fill[c], or zero when fill is nil.
func Pad[T tensor.Float](input *tensor.Dense[T], top, bottom, left, right int, fill *tensor.Dense[T]) (*tensor.Dense[T], error) {
	if input.Rank() != 4 {
		return nil, fmt.Errorf("%w: pad needs rank 4, got %v", tensor.ErrRank, input.Shape)
	}
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return nil, fmt.Errorf("%w: negative padding", tensor.ErrShape)
	}
	n, chs, rows, cols := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	if fill != nil && (fill.Rank() != 1 || fill.Shape[0] != chs) {
		return nil, fmt.Errorf("%w: padding values %v for %d channels", tensor.ErrShape, fill.Shape, chs)
	}

	newRows, newCols := rows+top+bottom, cols+left+right
	out := tensor.NewZeros[T](tensor.Shape{n, chs, newRows, newCols})
	for i := 0; i < n; i++ {
		for ch := 0; ch < chs; ch++ {
			dst := out.Data[(i*chs+ch)*newRows*newCols : (i*chs+ch+1)*newRows*newCols]
			if fill != nil {
				for j := range dst {
					dst[j] = fill.Data[ch]
				}
			}
			src := input.Data[(i*chs+ch)*rows*cols:]
			for r := 0; r < rows; r++ {
				copy(dst[(r+top)*newCols+left:(r+top)*newCols+left+cols], src[r*cols:(r+1)*cols])
			}
		}
	}
	return out, nil
}

// Conv2DSame convolves with odd-sized filters so that the output keeps the input's rows and
// cols. The border is zero, or padding[c] for channel c when padding is a rank-1 tensor of
// length C.
func Conv2DSame[T tensor.Float](input, filters, padding *tensor.Dense[T], opts ...Option) (*tensor.Dense[T], error) {
	if err := checkOperands(input, filters); err != nil {
		return nil, err
	}
	fh, fw := filters.Shape[2], filters.Shape[3]
	if fh%2 != 1 || fw%2 != 1 {
		return nil, fmt.Errorf("%w: same convolution needs odd filter sizes, got %dx%d", ErrFilter, fh, fw)
	}
	if fh == 1 && fw == 1 {
		return Tensor4Dot(input, filters)
	}
	padded, err := Pad(input, fh/2, fh/2, fw/2, fw/2, padding)
	if err != nil {
		return nil, err
	}
	opts = append(opts[:len(opts):len(opts)], WithBorderMode(Valid), WithSubsample(1, 1))
	return Conv2D(padded, filters, opts...)
}
