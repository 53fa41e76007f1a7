package modelinfo

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

// tfliteIdentifier is the flatbuffer file identifier of TFLite models.
const (
	tfliteIdentifier = "TFL3"
	identifierLength = len(tfliteIdentifier)
)

// vtable slots used from the TFLite schema.
const (
	modelSubgraphsSlot   = 2
	subgraphTensorsSlot  = 0
	subgraphInputsSlot   = 1
	subgraphOutputsSlot  = 2
	tensorShapeSlot      = 0
	tensorTypeSlot       = 1
	uoffsetSize          = flatbuffers.SizeUOffsetT
	int32Size            = flatbuffers.SizeInt32
	flatbufferHeaderSize = flatbuffers.SizeUOffsetT + identifierLength
)

// ErrNotTFLite is returned for buffers without the TFLite file identifier.
var ErrNotTFLite = fmt.Errorf("%w: buffer is not a TFLite model", ErrMalformedModel)

// tfliteTensorTypes maps the TFLite TensorType enum to TensorType.
var tfliteTensorTypes = map[int8]constants.TensorType{
	0:  constants.TensorTypeFloat32,
	1:  constants.TensorTypeFloat16,
	2:  constants.TensorTypeInt32,
	3:  constants.TensorTypeUint8,
	4:  constants.TensorTypeInt64,
	5:  constants.TensorTypeString,
	6:  constants.TensorTypeBool,
	7:  constants.TensorTypeInt16,
	8:  constants.TensorTypeComplex64,
	9:  constants.TensorTypeInt8,
	10: constants.TensorTypeFloat64,
	11: constants.TensorTypeComplex128,
	12: constants.TensorTypeUint64,
	15: constants.TensorTypeUint32,
	16: constants.TensorTypeUint16,
}

// TFLite inspects TFLite flatbuffer models. Only the first subgraph is read.
type TFLite struct{}

func (TFLite) InputTensorShape(modelBuffer []byte, index int) (shape []int, err error) {
	defer recoverMalformed(&err)

	sg, err := firstSubgraph(modelBuffer)
	if err != nil {
		return nil, err
	}
	tensor, err := sg.ioTensor(subgraphInputsSlot, index)
	if err != nil {
		return nil, fmt.Errorf("input tensor %d: %w", index, err)
	}
	return tensor.shape(), nil
}

func (TFLite) OutputTensorTypes(modelBuffer []byte) (types []constants.TensorType, err error) {
	defer recoverMalformed(&err)

	sg, err := firstSubgraph(modelBuffer)
	if err != nil {
		return nil, err
	}
	n := sg.vectorLen(subgraphOutputsSlot)
	types = make([]constants.TensorType, 0, n)
	for i := 0; i < n; i++ {
		tensor, err := sg.ioTensor(subgraphOutputsSlot, i)
		if err != nil {
			return nil, fmt.Errorf("output tensor %d: %w", i, err)
		}
		types = append(types, tensor.tensorType())
	}
	return types, nil
}

// recoverMalformed turns an out-of-range read on a corrupt buffer into an
// error.
func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: TFLite read out of range: %v", ErrMalformedModel, r)
	}
}

type table struct {
	flatbuffers.Table
}

func slotOffset(slot int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*slot)
}

func (t table) field(slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(slotOffset(slot)))
}

func (t table) vectorLen(slot int) int {
	o := t.field(slot)
	if o == 0 {
		return 0
	}
	return t.VectorLen(o)
}

// tableAt returns the j-th element of a vector of tables.
func (t table) tableAt(slot, j int) table {
	x := t.Vector(t.field(slot))
	x += flatbuffers.UOffsetT(j * uoffsetSize)
	x = t.Indirect(x)
	return table{flatbuffers.Table{Bytes: t.Bytes, Pos: x}}
}

// int32At returns the j-th element of a vector of int32.
func (t table) int32At(slot, j int) int32 {
	a := t.Vector(t.field(slot))
	return t.GetInt32(a + flatbuffers.UOffsetT(j*int32Size))
}

func firstSubgraph(buf []byte) (table, error) {
	if len(buf) < flatbufferHeaderSize || string(buf[uoffsetSize:flatbufferHeaderSize]) != tfliteIdentifier {
		return table{}, ErrNotTFLite
	}
	root := flatbuffers.GetUOffsetT(buf)
	model := table{flatbuffers.Table{Bytes: buf, Pos: root}}
	if model.vectorLen(modelSubgraphsSlot) == 0 {
		return table{}, fmt.Errorf("%w: model has no subgraphs", ErrMalformedModel)
	}
	return model.tableAt(modelSubgraphsSlot, 0), nil
}

// ioTensor resolves the index-th entry of the subgraph's inputs or outputs
// vector to its tensor table.
func (t table) ioTensor(slot, index int) (tensorTable, error) {
	n := t.vectorLen(slot)
	if index < 0 || index >= n {
		return tensorTable{}, fmt.Errorf("%w: index %d out of range [0, %d)", ErrMalformedModel, index, n)
	}
	ti := int(t.int32At(slot, index))
	if ti < 0 || ti >= t.vectorLen(subgraphTensorsSlot) {
		return tensorTable{}, fmt.Errorf("%w: tensor index %d out of range", ErrMalformedModel, ti)
	}
	return tensorTable{t.tableAt(subgraphTensorsSlot, ti)}, nil
}

type tensorTable struct {
	table
}

func (t tensorTable) shape() []int {
	n := t.vectorLen(tensorShapeSlot)
	shape := make([]int, n)
	for i := 0; i < n; i++ {
		shape[i] = int(t.int32At(tensorShapeSlot, i))
	}
	return shape
}

func (t tensorTable) tensorType() constants.TensorType {
	var raw int8
	if o := t.field(tensorTypeSlot); o != 0 {
		raw = t.GetInt8(o + t.Pos)
	}
	if tt, ok := tfliteTensorTypes[raw]; ok {
		return tt
	}
	return constants.TensorTypeUnknown
}
