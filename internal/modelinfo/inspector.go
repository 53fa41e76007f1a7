// Package modelinfo reads tensor shapes and element types out of a model
// buffer. It never interprets the model's graph.
package modelinfo

import (
	"errors"
	"fmt"
	"math"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

// ErrMalformedModel marks a model buffer the inspector cannot read: corrupt or
// truncated data, a missing tensor, or a shape that does not describe a real
// tensor.
var ErrMalformedModel = errors.New("malformed model")

// Inspector answers shape and type queries against a model buffer.
// Implementations must be safe for concurrent use on independent buffers.
type Inspector interface {
	// InputTensorShape returns the dimensions of the index-th input tensor.
	InputTensorShape(modelBuffer []byte, index int) ([]int, error)
	// OutputTensorTypes returns the element type of every output tensor, in
	// output order.
	OutputTensorTypes(modelBuffer []byte) ([]constants.TensorType, error)
}

// FlatSize returns the product of all dimensions. An empty shape yields 1 and
// any zero dimension yields 0. Negative dimensions and products that do not
// fit in an int are reported as ErrMalformedModel.
func FlatSize(shape []int) (int, error) {
	size := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension %d in shape %v", ErrMalformedModel, d, shape)
		}
		if d != 0 && size > math.MaxInt/d {
			return 0, fmt.Errorf("%w: flat size of shape %v overflows int", ErrMalformedModel, shape)
		}
		size *= d
	}
	return size, nil
}

// Static is an Inspector backed by fixed answers. It ignores the buffer.
type Static struct {
	InputShapes [][]int
	OutputTypes []constants.TensorType
}

func (s Static) InputTensorShape(_ []byte, index int) ([]int, error) {
	if index < 0 || index >= len(s.InputShapes) {
		return nil, fmt.Errorf("%w: input tensor index %d out of range [0, %d)", ErrMalformedModel, index, len(s.InputShapes))
	}
	return append([]int(nil), s.InputShapes[index]...), nil
}

func (s Static) OutputTensorTypes(_ []byte) ([]constants.TensorType, error) {
	return append([]constants.TensorType(nil), s.OutputTypes...), nil
}

// New returns the Inspector for a model format. The returned close function
// releases any runtime the inspector loaded.
func New(format constants.ModelFormat, onnxLibPath string) (Inspector, func() error, error) {
	switch format {
	case constants.ModelFormatTFLite, "":
		return TFLite{}, func() error { return nil }, nil
	case constants.ModelFormatONNX:
		o, err := NewONNX(onnxLibPath)
		if err != nil {
			return nil, nil, err
		}
		return o, o.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model format %q", format)
	}
}
