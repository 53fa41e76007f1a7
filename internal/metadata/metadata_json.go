package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

const (
	labelFileDescription        = "Labels for categories that the model can recognize."
	scoreCalibrationDescription = "Contains sigmoid-based score calibration parameters. The main purposes of score calibration is to make scores across classes comparable, so that a common threshold can be used for all output classes."
)

// modelMetadata mirrors the JSON form of the TFLite metadata schema, limited
// to the fields an audio classifier uses.
type modelMetadata struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Version          string             `json:"version,omitempty"`
	Author           string             `json:"author,omitempty"`
	License          string             `json:"license,omitempty"`
	SubgraphMetadata []subgraphMetadata `json:"subgraph_metadata"`
	MinParserVersion string             `json:"min_parser_version"`
}

type subgraphMetadata struct {
	InputTensorMetadata  []tensorMetadata `json:"input_tensor_metadata"`
	OutputTensorMetadata []tensorMetadata `json:"output_tensor_metadata"`
}

type tensorMetadata struct {
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Content         content              `json:"content"`
	ProcessUnits    []processUnit        `json:"process_units,omitempty"`
	Stats           stats                `json:"stats"`
	AssociatedFiles []associatedFileJSON `json:"associated_files,omitempty"`
}

type content struct {
	ContentPropertiesType string `json:"content_properties_type"`
	ContentProperties     any    `json:"content_properties"`
}

type audioProperties struct {
	SampleRate         int `json:"sample_rate,omitempty"`
	Channels           int `json:"channels,omitempty"`
	MinRequiredSamples int `json:"min_required_samples,omitempty"`
}

type featureProperties struct{}

type stats struct {
	Max []float64 `json:"max,omitempty"`
	Min []float64 `json:"min,omitempty"`
}

type processUnit struct {
	OptionsType string                  `json:"options_type"`
	Options     scoreCalibrationOptions `json:"options"`
}

type scoreCalibrationOptions struct {
	ScoreTransformation constants.ScoreTransformationType `json:"score_transformation"`
	DefaultScore        float64                           `json:"default_score"`
}

type associatedFileJSON struct {
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Type        constants.AssociatedFileType `json:"type"`
	Locale      string                       `json:"locale,omitempty"`
}

// MetadataJSON renders the metadata record as JSON in the layout used by
// TFLite metadata displayers.
func (w *Writer) MetadataJSON() ([]byte, error) {
	if err := w.input.Validate(); err != nil {
		return nil, err
	}

	output, err := w.outputTensorMetadata()
	if err != nil {
		return nil, err
	}

	md := modelMetadata{
		Name:        w.general.Name,
		Description: w.general.Description,
		Version:     w.general.Version,
		Author:      w.general.Author,
		License:     w.general.License,
		SubgraphMetadata: []subgraphMetadata{{
			InputTensorMetadata:  []tensorMetadata{w.inputTensorMetadata()},
			OutputTensorMetadata: []tensorMetadata{output},
		}},
		MinParserVersion: constants.MinParserVersion,
	}

	b, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func (w *Writer) inputTensorMetadata() tensorMetadata {
	return tensorMetadata{
		Name:        w.input.Name,
		Description: w.input.Description,
		Content: content{
			ContentPropertiesType: "AudioProperties",
			ContentProperties: audioProperties{
				SampleRate:         w.input.SampleRate,
				Channels:           w.input.Channels,
				MinRequiredSamples: w.input.MinRequiredSamples,
			},
		},
	}
}

func (w *Writer) outputTensorMetadata() (tensorMetadata, error) {
	tm := tensorMetadata{
		Name:        w.output.Name,
		Description: w.output.Description,
		Content: content{
			ContentPropertiesType: "FeatureProperties",
			ContentProperties:     featureProperties{},
		},
	}

	// Quantized scores have no fixed range.
	if w.output.TensorType == constants.TensorTypeFloat32 {
		tm.Stats = stats{Max: []float64{1.0}, Min: []float64{0.0}}
	}

	if sc := w.output.ScoreCalibration; sc != nil {
		if !sc.TransformationType.Valid() {
			return tensorMetadata{}, &ParameterError{
				Param:  "score_transformation",
				Reason: fmt.Sprintf("unknown score transformation type %q", sc.TransformationType),
			}
		}
		tm.ProcessUnits = []processUnit{{
			OptionsType: "ScoreCalibrationOptions",
			Options: scoreCalibrationOptions{
				ScoreTransformation: sc.TransformationType,
				DefaultScore:        sc.DefaultScore,
			},
		}}
	}

	for _, f := range w.output.AssociatedFiles() {
		desc := labelFileDescription
		if f.Type == constants.AssociatedFileTypeTensorAxisScoreCalibration {
			desc = scoreCalibrationDescription
		}
		tm.AssociatedFiles = append(tm.AssociatedFiles, associatedFileJSON{
			Name:        filepath.Base(f.FilePath),
			Description: desc,
			Type:        f.Type,
			Locale:      f.Locale,
		})
	}
	return tm, nil
}
