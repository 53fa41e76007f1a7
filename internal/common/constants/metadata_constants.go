package constants

// Default descriptor names and descriptions for audio classifier models.
const (
	ModelName         = "AudioClassifier"
	ModelDescription  = "Identify the most prominent type in the audio clip from a known set of categories."
	InputName         = "audio_clip"
	InputDescription  = "Input audio clip to be classified."
	OutputName        = "probability"
	OutputDescription = "Scores of the labels respectively."

	// AudioTensorIndex is the index of the single audio input tensor.
	AudioTensorIndex = 0

	// MinParserVersion is the lowest metadata parser version able to read
	// audio properties.
	MinParserVersion = "1.3.0"

	// DefaultMaxMsgSize bounds gRPC messages in both directions. Models travel
	// base64-encoded, so a model takes about 4/3 of its size on the wire.
	DefaultMaxMsgSize = 64 << 20
)

// TensorType is the element type of a model tensor.
type TensorType string

const (
	TensorTypeFloat32    TensorType = "FLOAT32"
	TensorTypeFloat16    TensorType = "FLOAT16"
	TensorTypeFloat64    TensorType = "FLOAT64"
	TensorTypeInt8       TensorType = "INT8"
	TensorTypeInt16      TensorType = "INT16"
	TensorTypeInt32      TensorType = "INT32"
	TensorTypeInt64      TensorType = "INT64"
	TensorTypeUint8      TensorType = "UINT8"
	TensorTypeUint16     TensorType = "UINT16"
	TensorTypeUint32     TensorType = "UINT32"
	TensorTypeUint64     TensorType = "UINT64"
	TensorTypeBool       TensorType = "BOOL"
	TensorTypeString     TensorType = "STRING"
	TensorTypeComplex64  TensorType = "COMPLEX64"
	TensorTypeComplex128 TensorType = "COMPLEX128"
	TensorTypeUnknown    TensorType = "UNKNOWN"
)

// AssociatedFileType tells a runtime how to interpret a side-car file.
type AssociatedFileType string

const (
	AssociatedFileTypeTensorAxisLabels           AssociatedFileType = "TENSOR_AXIS_LABELS"
	AssociatedFileTypeTensorAxisScoreCalibration AssociatedFileType = "TENSOR_AXIS_SCORE_CALIBRATION"
)

// ScoreTransformationType is the function applied to raw scores before
// calibration.
type ScoreTransformationType string

const (
	ScoreTransformationIdentity        ScoreTransformationType = "IDENTITY"
	ScoreTransformationLog             ScoreTransformationType = "LOG"
	ScoreTransformationInverseLogistic ScoreTransformationType = "INVERSE_LOGISTIC"
)

// Valid reports whether t is a known transformation.
func (t ScoreTransformationType) Valid() bool {
	switch t {
	case ScoreTransformationIdentity, ScoreTransformationLog, ScoreTransformationInverseLogistic:
		return true
	default:
		return false
	}
}

// ModelFormat selects how model buffers are inspected.
type ModelFormat string

const (
	ModelFormatTFLite ModelFormat = "tflite"
	ModelFormatONNX   ModelFormat = "onnx"
)
