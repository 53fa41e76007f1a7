package metadata

import (
	"errors"
	"fmt"
	"slices"
)

// Populator is the serialization engine that embeds a metadata block into a
// model buffer. Implementations own the binary encoding and any file I/O.
type Populator interface {
	Populate(modelBuffer, metadataJSON []byte, associatedFiles []string) ([]byte, error)
}

// Writer is a fully assembled metadata description, ready to be handed to a
// Populator. It is immutable and holds no state beyond its descriptors.
type Writer struct {
	modelBuffer     []byte
	general         GeneralInfo
	input           InputAudioTensorInfo
	output          ClassificationTensorInfo
	associatedFiles []string
}

// NewWriter wraps already-resolved descriptors. The model buffer is kept by
// reference and is never written to.
func NewWriter(modelBuffer []byte, general GeneralInfo, input InputAudioTensorInfo, output ClassificationTensorInfo, associatedFiles []string) *Writer {
	files := slices.Clone(associatedFiles)
	if files == nil {
		files = []string{}
	}
	return &Writer{
		modelBuffer:     modelBuffer,
		general:         general,
		input:           input,
		output:          output.clone(),
		associatedFiles: files,
	}
}

// ModelBuffer returns the model artifact the metadata belongs to.
func (w *Writer) ModelBuffer() []byte { return w.modelBuffer }

// GeneralInfo returns the model-level descriptor.
func (w *Writer) GeneralInfo() GeneralInfo { return w.general }

// InputInfo returns the audio input descriptor.
func (w *Writer) InputInfo() InputAudioTensorInfo { return w.input }

// OutputInfo returns a copy of the classification output descriptor.
func (w *Writer) OutputInfo() ClassificationTensorInfo { return w.output.clone() }

// AssociatedFiles returns the paths of the files that must be packed with
// the model, in order.
func (w *Writer) AssociatedFiles() []string { return slices.Clone(w.associatedFiles) }

// Populate renders the metadata and hands it to p. It returns the populated
// model buffer together with the associated file paths.
func (w *Writer) Populate(p Populator) ([]byte, []string, error) {
	if p == nil {
		return nil, nil, errors.New("populator cannot be nil")
	}
	js, err := w.MetadataJSON()
	if err != nil {
		return nil, nil, err
	}
	populated, err := p.Populate(w.modelBuffer, js, w.AssociatedFiles())
	if err != nil {
		return nil, nil, fmt.Errorf("populate metadata: %w", err)
	}
	return populated, w.AssociatedFiles(), nil
}
