// Package metadata holds the descriptors that make up an audio classifier's
// metadata record and the Writer handle that wraps an assembled set of them.
//
// Descriptors are plain values. Once placed in a Writer they are copied and
// never modified again.
package metadata

import (
	"slices"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

// GeneralInfo identifies the model as a whole.
type GeneralInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	License     string `json:"license,omitempty"`
}

// DefaultGeneralInfo returns the general info used when a caller supplies none.
func DefaultGeneralInfo() GeneralInfo {
	return GeneralInfo{
		Name:        constants.ModelName,
		Description: constants.ModelDescription,
	}
}

// InputAudioTensorInfo describes the model's audio input.
// A MinRequiredSamples of 0 means the model accepts variable-length input.
type InputAudioTensorInfo struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	SampleRate         int    `json:"sample_rate"`
	Channels           int    `json:"channels"`
	MinRequiredSamples int    `json:"min_required_samples"`
}

// DefaultInputAudioTensorInfo carries only name and description; the
// acoustic parameters are left for the caller to fill in.
func DefaultInputAudioTensorInfo() InputAudioTensorInfo {
	return InputAudioTensorInfo{
		Name:        constants.InputName,
		Description: constants.InputDescription,
	}
}

// Validate checks the acoustic parameters. Zero values are accepted so that
// a default descriptor can still be rendered.
func (in InputAudioTensorInfo) Validate() error {
	if in.SampleRate < 0 {
		return NewNonNegativeError("sample_rate", in.SampleRate)
	}
	if in.Channels < 0 {
		return NewNonNegativeError("channels", in.Channels)
	}
	if in.MinRequiredSamples < 0 {
		return NewNonNegativeError("min_required_samples", in.MinRequiredSamples)
	}
	return nil
}

// LabelFileInfo references a label file. Line order matches the output
// tensor element order.
type LabelFileInfo struct {
	FilePath string `json:"file_path"`
	Locale   string `json:"locale,omitempty"`
}

// ScoreCalibrationInfo describes a score calibration process unit.
type ScoreCalibrationInfo struct {
	TransformationType constants.ScoreTransformationType `json:"transformation_type"`
	DefaultScore       float64                           `json:"default_score"`
	FilePath           string                            `json:"file_path"`
}

// AssociatedFileInfo is a side-car file that must be packed with the model.
type AssociatedFileInfo struct {
	FilePath string                       `json:"file_path"`
	Type     constants.AssociatedFileType `json:"type"`
	Locale   string                       `json:"locale,omitempty"`
}

// ClassificationTensorInfo describes the output score tensor.
type ClassificationTensorInfo struct {
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	LabelFiles       []LabelFileInfo       `json:"label_files"`
	TensorType       constants.TensorType  `json:"tensor_type,omitempty"`
	ScoreCalibration *ScoreCalibrationInfo `json:"score_calibration,omitempty"`
}

// DefaultClassificationTensorInfo returns an output descriptor with no
// labels and no calibration.
func DefaultClassificationTensorInfo() ClassificationTensorInfo {
	return ClassificationTensorInfo{
		Name:        constants.OutputName,
		Description: constants.OutputDescription,
		LabelFiles:  []LabelFileInfo{},
	}
}

// AssociatedFiles lists label files in order followed by the score
// calibration file, if any. The result is never nil.
func (out ClassificationTensorInfo) AssociatedFiles() []AssociatedFileInfo {
	files := make([]AssociatedFileInfo, 0, len(out.LabelFiles)+1)
	for _, lf := range out.LabelFiles {
		files = append(files, AssociatedFileInfo{
			FilePath: lf.FilePath,
			Type:     constants.AssociatedFileTypeTensorAxisLabels,
			Locale:   lf.Locale,
		})
	}
	if out.ScoreCalibration != nil {
		files = append(files, AssociatedFileInfo{
			FilePath: out.ScoreCalibration.FilePath,
			Type:     constants.AssociatedFileTypeTensorAxisScoreCalibration,
		})
	}
	return files
}

// clone returns a deep copy so the Writer never shares slices or pointers
// with its caller.
func (out ClassificationTensorInfo) clone() ClassificationTensorInfo {
	c := out
	c.LabelFiles = slices.Clone(out.LabelFiles)
	if c.LabelFiles == nil {
		c.LabelFiles = []LabelFileInfo{}
	}
	if out.ScoreCalibration != nil {
		sc := *out.ScoreCalibration
		c.ScoreCalibration = &sc
	}
	return c
}
