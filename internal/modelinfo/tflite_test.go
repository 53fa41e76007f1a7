package modelinfo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/modelinfo/tflitetest"
)

func TestTFLiteInputTensorShape(t *testing.T) {
	buf := tflitetest.AudioModel([]int32{1, 15600}, tflitetest.TypeFloat32)

	shape, err := TFLite{}.InputTensorShape(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 15600}, shape)
}

func TestTFLiteInputTensorShape_Empty(t *testing.T) {
	buf := tflitetest.AudioModel(nil, tflitetest.TypeFloat32)

	shape, err := TFLite{}.InputTensorShape(buf, 0)
	require.NoError(t, err)
	assert.Empty(t, shape)
}

func TestTFLiteInputTensorShape_SecondInput(t *testing.T) {
	buf := tflitetest.Model(
		[]tflitetest.Tensor{
			{Shape: []int32{1, 16000}, Type: tflitetest.TypeFloat32},
			{Shape: []int32{2, 3}, Type: tflitetest.TypeInt32},
		},
		[]tflitetest.Tensor{{Shape: []int32{1, 2}, Type: tflitetest.TypeFloat32}},
	)

	shape, err := TFLite{}.InputTensorShape(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, shape)
}

func TestTFLiteInputTensorShape_IndexOutOfRange(t *testing.T) {
	buf := tflitetest.AudioModel([]int32{1, 16000}, tflitetest.TypeFloat32)

	_, err := TFLite{}.InputTensorShape(buf, 3)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestTFLiteOutputTensorTypes(t *testing.T) {
	buf := tflitetest.Model(
		[]tflitetest.Tensor{{Shape: []int32{1, 16000}, Type: tflitetest.TypeFloat32}},
		[]tflitetest.Tensor{
			{Shape: []int32{1, 521}, Type: tflitetest.TypeUint8},
			{Shape: []int32{1, 521}, Type: tflitetest.TypeFloat32},
			{Shape: []int32{1}, Type: tflitetest.TypeInt8},
		},
	)

	types, err := TFLite{}.OutputTensorTypes(buf)
	require.NoError(t, err)
	assert.Equal(t, []constants.TensorType{
		constants.TensorTypeUint8,
		constants.TensorTypeFloat32,
		constants.TensorTypeInt8,
	}, types)
}

func TestTFLiteRejectsNonTFLiteBuffer(t *testing.T) {
	_, err := TFLite{}.InputTensorShape([]byte("not a model at all"), 0)
	assert.ErrorIs(t, err, ErrNotTFLite)

	_, err = TFLite{}.OutputTensorTypes(nil)
	assert.ErrorIs(t, err, ErrNotTFLite)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestTFLiteTruncatedBuffer(t *testing.T) {
	buf := tflitetest.AudioModel([]int32{1, 16000}, tflitetest.TypeFloat32)
	truncated := append([]byte(nil), buf[:12]...)

	_, err := TFLite{}.InputTensorShape(truncated, 0)
	assert.ErrorIs(t, err, ErrMalformedModel)

	_, err = TFLite{}.OutputTensorTypes(truncated)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestFlatSize(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		want  int
	}{
		{name: "empty", shape: nil, want: 1},
		{name: "dynamic placeholder", shape: []int{1, 1}, want: 1},
		{name: "mono clip", shape: []int{1, 16000}, want: 16000},
		{name: "stereo clip", shape: []int{1, 16000, 2}, want: 32000},
		{name: "zero dimension", shape: []int{1, 0}, want: 0},
		{name: "zero before large dimensions", shape: []int{0, math.MaxInt32, math.MaxInt32, math.MaxInt32}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlatSize(tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlatSize_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
	}{
		{name: "overflow", shape: []int{math.MaxInt32, math.MaxInt32, math.MaxInt32}},
		{name: "negative dimension", shape: []int{1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FlatSize(tt.shape)
			assert.ErrorIs(t, err, ErrMalformedModel)
		})
	}
}

func TestStaticInspector(t *testing.T) {
	s := Static{
		InputShapes: [][]int{{1, 8000}},
		OutputTypes: []constants.TensorType{constants.TensorTypeFloat32},
	}

	shape, err := s.InputTensorShape(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 8000}, shape)

	_, err = s.InputTensorShape(nil, 1)
	assert.ErrorIs(t, err, ErrMalformedModel)

	types, err := s.OutputTensorTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []constants.TensorType{constants.TensorTypeFloat32}, types)
}

func TestNewInspector(t *testing.T) {
	insp, closeFn, err := New(constants.ModelFormatTFLite, "")
	require.NoError(t, err)
	assert.IsType(t, TFLite{}, insp)
	assert.NoError(t, closeFn())

	_, _, err = New("savedmodel", "")
	assert.Error(t, err)
}

func TestONNXShapeMapsDynamicDims(t *testing.T) {
	assert.Equal(t, []int{1, 1, 16000}, onnxShape([]int64{-1, 0, 16000}))
}
