// Package tflitetest builds minimal TFLite model buffers for tests.
package tflitetest

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// TFLite TensorType enum values.
const (
	TypeFloat32 int8 = 0
	TypeInt32   int8 = 2
	TypeUint8   int8 = 3
	TypeInt8    int8 = 9
)

// Tensor is a tensor entry of the generated subgraph. A nil Shape leaves
// the field out of the flatbuffer.
type Tensor struct {
	Shape []int32
	Type  int8
}

// Model returns a TFLite flatbuffer with a single subgraph holding the given
// input tensors followed by the output tensors.
func Model(inputs, outputs []Tensor) []byte {
	b := flatbuffers.NewBuilder(256)

	all := make([]Tensor, 0, len(inputs)+len(outputs))
	all = append(all, inputs...)
	all = append(all, outputs...)

	tensorOffsets := make([]flatbuffers.UOffsetT, len(all))
	for i, t := range all {
		var shape flatbuffers.UOffsetT
		if t.Shape != nil {
			shape = int32Vector(b, t.Shape)
		}
		b.StartObject(2)
		if t.Shape != nil {
			b.PrependUOffsetTSlot(0, shape, 0)
		}
		b.PrependInt8Slot(1, t.Type, 0)
		tensorOffsets[i] = b.EndObject()
	}
	tensors := offsetVector(b, tensorOffsets)
	inputIdx := int32Vector(b, indices(0, len(inputs)))
	outputIdx := int32Vector(b, indices(len(inputs), len(all)))

	b.StartObject(3)
	b.PrependUOffsetTSlot(0, tensors, 0)
	b.PrependUOffsetTSlot(1, inputIdx, 0)
	b.PrependUOffsetTSlot(2, outputIdx, 0)
	subgraph := b.EndObject()
	subgraphs := offsetVector(b, []flatbuffers.UOffsetT{subgraph})

	b.StartObject(3)
	b.PrependUint32Slot(0, 3, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	model := b.EndObject()

	b.FinishWithFileIdentifier(model, []byte("TFL3"))
	return append([]byte(nil), b.FinishedBytes()...)
}

// AudioModel is a single-input single-output model, the common shape of an
// audio classifier.
func AudioModel(inputShape []int32, outputType int8) []byte {
	return Model(
		[]Tensor{{Shape: inputShape, Type: TypeFloat32}},
		[]Tensor{{Shape: []int32{1, 521}, Type: outputType}},
	)
}

func int32Vector(b *flatbuffers.Builder, vals []int32) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeInt32, len(vals), flatbuffers.SizeInt32)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt32(vals[i])
	}
	return b.EndVector(len(vals))
}

func offsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func indices(from, to int) []int32 {
	idx := make([]int32, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, int32(i))
	}
	return idx
}
