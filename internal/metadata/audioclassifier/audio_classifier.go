// Package audioclassifier builds the metadata of audio classification
// models.
//
// There are two entry points:
//
//   - [CreateFromMetadataInfo] assembles a [metadata.Writer] from optional
//     descriptors, filling in defaults for anything left nil.
//   - [CreateForInference] takes the raw parameters the inference runtimes
//     require, validates them, derives the minimum required sample count from
//     the model when it is 0, and delegates to CreateFromMetadataInfo.
//
// Neither keeps state between calls.
package audioclassifier

import (
	"fmt"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/modelinfo"
)

// Builder creates audio classifier metadata writers. The zero value reads
// TFLite models.
type Builder struct {
	Inspector modelinfo.Inspector
}

// NewBuilder returns a Builder that queries models with inspector.
func NewBuilder(inspector modelinfo.Inspector) *Builder {
	return &Builder{Inspector: inspector}
}

var defaultBuilder = &Builder{}

func (b *Builder) inspector() modelinfo.Inspector {
	if b.Inspector == nil {
		return modelinfo.TFLite{}
	}
	return b.Inspector
}

// CreateFromMetadataInfo assembles a Writer. Nil descriptors are replaced
// with defaults. The associated files of the writer are taken from the
// output descriptor.
func CreateFromMetadataInfo(modelBuffer []byte, general *metadata.GeneralInfo, input *metadata.InputAudioTensorInfo, output *metadata.ClassificationTensorInfo) *metadata.Writer {
	g := metadata.DefaultGeneralInfo()
	if general != nil {
		g = *general
	}

	in := metadata.DefaultInputAudioTensorInfo()
	if input != nil {
		in = *input
	}

	out := metadata.DefaultClassificationTensorInfo()
	if output != nil {
		out = *output
	}

	files := out.AssociatedFiles()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FilePath
	}

	return metadata.NewWriter(modelBuffer, g, in, out, paths)
}

// CreateForInference creates a Writer holding the metadata TFLite models
// need for inference, reading the model with the TFLite inspector.
// See [Builder.CreateForInference].
func CreateForInference(modelBuffer []byte, sampleRate, channels, minRequiredSamples int, labelFilePaths []string, scoreCalibration *metadata.ScoreCalibrationInfo) (*metadata.Writer, error) {
	return defaultBuilder.CreateForInference(modelBuffer, sampleRate, channels, minRequiredSamples, labelFilePaths, scoreCalibration)
}

// CreateForInference validates the audio parameters and creates a Writer.
//
// sampleRate and channels must be positive and minRequiredSamples must not be
// negative. A minRequiredSamples of 0 is derived from the input tensor shape
// as the per-channel sample count, rounded up; models whose input is not
// fixed-size then fail with metadata.ErrInvalidParameter. Pass an empty
// labelFilePaths when the model has no label file.
func (b *Builder) CreateForInference(modelBuffer []byte, sampleRate, channels, minRequiredSamples int, labelFilePaths []string, scoreCalibration *metadata.ScoreCalibrationInfo) (*metadata.Writer, error) {
	if sampleRate <= 0 {
		return nil, metadata.NewPositiveError("sample_rate", sampleRate)
	}
	if channels <= 0 {
		return nil, metadata.NewPositiveError("channels", channels)
	}
	if minRequiredSamples < 0 {
		return nil, metadata.NewNonNegativeError("min_required_samples", minRequiredSamples)
	}

	inspector := b.inspector()

	if minRequiredSamples == 0 {
		derived, err := deriveMinRequiredSamples(inspector, modelBuffer, channels)
		if err != nil {
			return nil, err
		}
		minRequiredSamples = derived
	}

	outputTypes, err := inspector.OutputTensorTypes(modelBuffer)
	if err != nil {
		return nil, fmt.Errorf("read output tensor types: %w", err)
	}
	if len(outputTypes) == 0 {
		return nil, fmt.Errorf("read output tensor types: %w: model has no output tensors", modelinfo.ErrMalformedModel)
	}

	input := metadata.InputAudioTensorInfo{
		Name:               constants.InputName,
		Description:        constants.InputDescription,
		SampleRate:         sampleRate,
		Channels:           channels,
		MinRequiredSamples: minRequiredSamples,
	}

	labelFiles := make([]metadata.LabelFileInfo, len(labelFilePaths))
	for i, p := range labelFilePaths {
		labelFiles[i] = metadata.LabelFileInfo{FilePath: p}
	}

	output := metadata.ClassificationTensorInfo{
		Name:             constants.OutputName,
		Description:      constants.OutputDescription,
		LabelFiles:       labelFiles,
		TensorType:       outputTypes[0],
		ScoreCalibration: scoreCalibration,
	}

	return CreateFromMetadataInfo(modelBuffer, nil, &input, &output), nil
}

// deriveMinRequiredSamples computes ceil(flatSize / channels) for a
// fixed-size audio tensor.
//
// A dynamic input shows up either as an empty shape or as a shape whose flat
// size is 1 (e.g. [1] or [1, 1]). A genuinely fixed single-sample tensor is
// indistinguishable from that and is rejected too. A shape with a zero
// dimension derives 0, the same value callers use for variable-length input.
func deriveMinRequiredSamples(inspector modelinfo.Inspector, modelBuffer []byte, channels int) (int, error) {
	shape, err := inspector.InputTensorShape(modelBuffer, constants.AudioTensorIndex)
	if err != nil {
		return 0, fmt.Errorf("read audio tensor shape: %w", err)
	}

	flatSize, err := modelinfo.FlatSize(shape)
	if err != nil {
		return 0, fmt.Errorf("read audio tensor shape: %w", err)
	}
	if len(shape) == 0 || flatSize == 1 {
		return 0, &metadata.ParameterError{
			Param:  "min_required_samples",
			Value:  0,
			Reason: "the audio tensor is not fixed-size, therefore min_required_samples is required, and should be a positive value",
		}
	}
	perChannel := flatSize / channels
	if flatSize%channels != 0 {
		perChannel++
	}
	return perChannel, nil
}
