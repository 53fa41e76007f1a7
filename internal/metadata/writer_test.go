package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

type fakePopulator struct {
	gotModel []byte
	gotJSON  []byte
	gotFiles []string
	err      error
}

func (f *fakePopulator) Populate(modelBuffer, metadataJSON []byte, associatedFiles []string) ([]byte, error) {
	f.gotModel = modelBuffer
	f.gotJSON = metadataJSON
	f.gotFiles = associatedFiles
	if f.err != nil {
		return nil, f.err
	}
	return append(append([]byte(nil), modelBuffer...), metadataJSON...), nil
}

func newTestWriter(output ClassificationTensorInfo) *Writer {
	input := InputAudioTensorInfo{
		Name:               constants.InputName,
		Description:        constants.InputDescription,
		SampleRate:         16000,
		Channels:           1,
		MinRequiredSamples: 15600,
	}
	files := output.AssociatedFiles()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FilePath
	}
	return NewWriter([]byte("model"), DefaultGeneralInfo(), input, output, paths)
}

func TestAssociatedFiles_LabelsThenCalibration(t *testing.T) {
	out := ClassificationTensorInfo{
		LabelFiles: []LabelFileInfo{
			{FilePath: "labels_en.txt", Locale: "en"},
			{FilePath: "labels_fr.txt", Locale: "fr"},
		},
		ScoreCalibration: &ScoreCalibrationInfo{
			TransformationType: constants.ScoreTransformationLog,
			DefaultScore:       0.2,
			FilePath:           "score_calibration.txt",
		},
	}

	files := out.AssociatedFiles()
	require.Len(t, files, 3)
	assert.Equal(t, "labels_en.txt", files[0].FilePath)
	assert.Equal(t, "en", files[0].Locale)
	assert.Equal(t, "labels_fr.txt", files[1].FilePath)
	assert.Equal(t, constants.AssociatedFileTypeTensorAxisLabels, files[1].Type)
	assert.Equal(t, "score_calibration.txt", files[2].FilePath)
	assert.Equal(t, constants.AssociatedFileTypeTensorAxisScoreCalibration, files[2].Type)
}

func TestAssociatedFiles_NeverNil(t *testing.T) {
	files := ClassificationTensorInfo{}.AssociatedFiles()
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestNewWriter_DoesNotAliasCallerSlices(t *testing.T) {
	labels := []LabelFileInfo{{FilePath: "labels.txt"}}
	paths := []string{"labels.txt"}
	w := NewWriter(nil, DefaultGeneralInfo(), DefaultInputAudioTensorInfo(),
		ClassificationTensorInfo{LabelFiles: labels}, paths)

	labels[0].FilePath = "changed.txt"
	paths[0] = "changed.txt"

	assert.Equal(t, "labels.txt", w.OutputInfo().LabelFiles[0].FilePath)
	assert.Equal(t, []string{"labels.txt"}, w.AssociatedFiles())

	got := w.AssociatedFiles()
	got[0] = "mutated.txt"
	assert.Equal(t, []string{"labels.txt"}, w.AssociatedFiles())
}

func TestNewWriter_NilAssociatedFilesBecomesEmpty(t *testing.T) {
	w := NewWriter(nil, DefaultGeneralInfo(), DefaultInputAudioTensorInfo(), DefaultClassificationTensorInfo(), nil)
	assert.NotNil(t, w.AssociatedFiles())
	assert.Empty(t, w.AssociatedFiles())
}

func TestMetadataJSON(t *testing.T) {
	w := newTestWriter(ClassificationTensorInfo{
		Name:        constants.OutputName,
		Description: constants.OutputDescription,
		LabelFiles:  []LabelFileInfo{{FilePath: "/tmp/yamnet/labels.txt"}},
		TensorType:  constants.TensorTypeFloat32,
		ScoreCalibration: &ScoreCalibrationInfo{
			TransformationType: constants.ScoreTransformationInverseLogistic,
			DefaultScore:       0.5,
			FilePath:           "calibration.csv",
		},
	})

	raw, err := w.MetadataJSON()
	require.NoError(t, err)

	var md modelMetadata
	require.NoError(t, json.Unmarshal(raw, &md))
	assert.Equal(t, constants.ModelName, md.Name)
	assert.Equal(t, constants.MinParserVersion, md.MinParserVersion)
	require.Len(t, md.SubgraphMetadata, 1)

	sg := md.SubgraphMetadata[0]
	require.Len(t, sg.InputTensorMetadata, 1)
	assert.Equal(t, constants.InputName, sg.InputTensorMetadata[0].Name)
	assert.Equal(t, "AudioProperties", sg.InputTensorMetadata[0].Content.ContentPropertiesType)

	require.Len(t, sg.OutputTensorMetadata, 1)
	out := sg.OutputTensorMetadata[0]
	assert.Equal(t, []float64{1.0}, out.Stats.Max)
	assert.Equal(t, []float64{0.0}, out.Stats.Min)
	require.Len(t, out.ProcessUnits, 1)
	assert.Equal(t, constants.ScoreTransformationInverseLogistic, out.ProcessUnits[0].Options.ScoreTransformation)
	require.Len(t, out.AssociatedFiles, 2)
	assert.Equal(t, "labels.txt", out.AssociatedFiles[0].Name)
	assert.Equal(t, constants.AssociatedFileTypeTensorAxisLabels, out.AssociatedFiles[0].Type)
	assert.Equal(t, "calibration.csv", out.AssociatedFiles[1].Name)

	// Audio properties round-trip as a generic object.
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	props := generic["subgraph_metadata"].([]any)[0].(map[string]any)["input_tensor_metadata"].([]any)[0].(map[string]any)["content"].(map[string]any)["content_properties"].(map[string]any)
	assert.EqualValues(t, 16000, props["sample_rate"])
	assert.EqualValues(t, 1, props["channels"])
	assert.EqualValues(t, 15600, props["min_required_samples"])
}

func TestMetadataJSON_QuantizedOutputHasNoStats(t *testing.T) {
	w := newTestWriter(ClassificationTensorInfo{TensorType: constants.TensorTypeUint8})

	raw, err := w.MetadataJSON()
	require.NoError(t, err)

	var md modelMetadata
	require.NoError(t, json.Unmarshal(raw, &md))
	assert.Empty(t, md.SubgraphMetadata[0].OutputTensorMetadata[0].Stats.Max)
	assert.Empty(t, md.SubgraphMetadata[0].OutputTensorMetadata[0].AssociatedFiles)
}

func TestMetadataJSON_RejectsNegativeInput(t *testing.T) {
	in := DefaultInputAudioTensorInfo()
	in.Channels = -2
	w := NewWriter(nil, DefaultGeneralInfo(), in, DefaultClassificationTensorInfo(), nil)

	_, err := w.MetadataJSON()
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestMetadataJSON_RejectsUnknownCalibration(t *testing.T) {
	w := newTestWriter(ClassificationTensorInfo{
		ScoreCalibration: &ScoreCalibrationInfo{TransformationType: "SQUARE"},
	})

	_, err := w.MetadataJSON()
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPopulate(t *testing.T) {
	w := newTestWriter(ClassificationTensorInfo{LabelFiles: []LabelFileInfo{{FilePath: "labels.txt"}}})
	p := &fakePopulator{}

	populated, files, err := w.Populate(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"labels.txt"}, files)
	assert.Equal(t, []string{"labels.txt"}, p.gotFiles)
	assert.Equal(t, []byte("model"), p.gotModel)
	assert.NotEmpty(t, p.gotJSON)
	assert.Equal(t, append([]byte("model"), p.gotJSON...), populated)
}

func TestPopulate_Errors(t *testing.T) {
	w := newTestWriter(DefaultClassificationTensorInfo())

	_, _, err := w.Populate(nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, _, err = w.Populate(&fakePopulator{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestParameterError(t *testing.T) {
	err := NewPositiveError("sample_rate", -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, "invalid parameter: sample_rate should be positive, but got -1", err.Error())

	var pe *ParameterError
	require.ErrorAs(t, error(NewNonNegativeError("min_required_samples", -5)), &pe)
	assert.Equal(t, "min_required_samples", pe.Param)
	assert.Equal(t, -5, pe.Value)
}
