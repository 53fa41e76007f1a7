package modelinfo

import (
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

var onnxTensorTypes = map[ort.TensorElementDataType]constants.TensorType{
	ort.TensorElementDataTypeFloat:      constants.TensorTypeFloat32,
	ort.TensorElementDataTypeFloat16:    constants.TensorTypeFloat16,
	ort.TensorElementDataTypeDouble:     constants.TensorTypeFloat64,
	ort.TensorElementDataTypeInt8:       constants.TensorTypeInt8,
	ort.TensorElementDataTypeInt16:      constants.TensorTypeInt16,
	ort.TensorElementDataTypeInt32:      constants.TensorTypeInt32,
	ort.TensorElementDataTypeInt64:      constants.TensorTypeInt64,
	ort.TensorElementDataTypeUint8:      constants.TensorTypeUint8,
	ort.TensorElementDataTypeUint16:     constants.TensorTypeUint16,
	ort.TensorElementDataTypeUint32:     constants.TensorTypeUint32,
	ort.TensorElementDataTypeUint64:     constants.TensorTypeUint64,
	ort.TensorElementDataTypeBool:       constants.TensorTypeBool,
	ort.TensorElementDataTypeString:     constants.TensorTypeString,
	ort.TensorElementDataTypeComplex64:  constants.TensorTypeComplex64,
	ort.TensorElementDataTypeComplex128: constants.TensorTypeComplex128,
}

var onnxInitMu sync.Mutex

// ONNX inspects ONNX models through ONNX Runtime. Dimensions that are
// symbolic or unknown (<= 0) are reported as 1, matching how TFLite lays out
// dynamic dimensions in a tensor's shape.
type ONNX struct{}

// NewONNX loads the ONNX Runtime shared library at libPath, once per process.
func NewONNX(libPath string) (*ONNX, error) {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if !ort.IsInitialized() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		log.Printf("ONNX Runtime initialized from %q", libPath)
	}
	return &ONNX{}, nil
}

// Close tears down the ONNX Runtime environment.
func (*ONNX) Close() error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func (*ONNX) InputTensorShape(modelBuffer []byte, index int) ([]int, error) {
	inputs, _, err := ort.GetInputOutputInfoWithONNXData(modelBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: read onnx io info: %w", ErrMalformedModel, err)
	}
	if index < 0 || index >= len(inputs) {
		return nil, fmt.Errorf("%w: input tensor index %d out of range [0, %d)", ErrMalformedModel, index, len(inputs))
	}
	return onnxShape(inputs[index].Dimensions), nil
}

func (*ONNX) OutputTensorTypes(modelBuffer []byte) ([]constants.TensorType, error) {
	_, outputs, err := ort.GetInputOutputInfoWithONNXData(modelBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: read onnx io info: %w", ErrMalformedModel, err)
	}
	types := make([]constants.TensorType, len(outputs))
	for i, o := range outputs {
		tt, ok := onnxTensorTypes[o.DataType]
		if !ok {
			tt = constants.TensorTypeUnknown
		}
		types[i] = tt
	}
	return types, nil
}

func onnxShape(dims ort.Shape) []int {
	shape := make([]int, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = int(d)
	}
	return shape
}
