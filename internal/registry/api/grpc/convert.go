package grpcwriter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/registry/controller"
)

// CreateForInferenceRequest carries the inputs of
// audioclassifier.CreateForInference.
type CreateForInferenceRequest struct {
	Model              []byte
	SampleRate         int
	Channels           int
	MinRequiredSamples int
	LabelFilePaths     []string
	ScoreCalibration   *metadata.ScoreCalibrationInfo
}

// CreateForInferenceResponse identifies the stored record and repeats what
// the caller needs to package the model.
type CreateForInferenceResponse struct {
	ID                 string
	MinRequiredSamples int
	AssociatedFiles    []string
	MetadataJSON       []byte
}

func (r *CreateForInferenceRequest) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"model":                base64.StdEncoding.EncodeToString(r.Model),
		"sample_rate":          r.SampleRate,
		"channels":             r.Channels,
		"min_required_samples": r.MinRequiredSamples,
		"label_file_paths":     stringsToAny(r.LabelFilePaths),
	}
	if sc := r.ScoreCalibration; sc != nil {
		fields["score_calibration"] = map[string]any{
			"transformation_type": string(sc.TransformationType),
			"default_score":       sc.DefaultScore,
			"file_path":           sc.FilePath,
		}
	}
	return structpb.NewStruct(fields)
}

func createRequestFromStruct(s *structpb.Struct) (*CreateForInferenceRequest, error) {
	f := s.GetFields()

	model, err := base64.StdEncoding.DecodeString(f["model"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	req := &CreateForInferenceRequest{Model: model}

	if req.SampleRate, err = intField(f, "sample_rate"); err != nil {
		return nil, err
	}
	if req.Channels, err = intField(f, "channels"); err != nil {
		return nil, err
	}
	if req.MinRequiredSamples, err = intField(f, "min_required_samples"); err != nil {
		return nil, err
	}

	for i, v := range f["label_file_paths"].GetListValue().GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("label_file_paths[%d]: not a string", i)
		}
		req.LabelFilePaths = append(req.LabelFilePaths, sv.StringValue)
	}

	if sc := f["score_calibration"].GetStructValue(); sc != nil {
		scf := sc.GetFields()
		req.ScoreCalibration = &metadata.ScoreCalibrationInfo{
			TransformationType: constants.ScoreTransformationType(scf["transformation_type"].GetStringValue()),
			DefaultScore:       scf["default_score"].GetNumberValue(),
			FilePath:           scf["file_path"].GetStringValue(),
		}
	}
	return req, nil
}

// intField reads a whole number. Missing fields read as 0.
func intField(f map[string]*structpb.Value, name string) (int, error) {
	v, ok := f[name]
	if !ok {
		return 0, nil
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: not a number", name)
	}
	if nv.NumberValue != math.Trunc(nv.NumberValue) || math.Abs(nv.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%s: %v is not an integer", name, nv.NumberValue)
	}
	return int(nv.NumberValue), nil
}

func (r *CreateForInferenceResponse) toStruct() (*structpb.Struct, error) {
	md := &structpb.Struct{}
	if err := md.UnmarshalJSON(r.MetadataJSON); err != nil {
		return nil, fmt.Errorf("metadata json: %w", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":                   structpb.NewStringValue(r.ID),
		"min_required_samples": structpb.NewNumberValue(float64(r.MinRequiredSamples)),
		"associated_files":     structpb.NewListValue(stringList(r.AssociatedFiles)),
		"metadata":             structpb.NewStructValue(md),
	}}, nil
}

func createResponseFromStruct(s *structpb.Struct) (*CreateForInferenceResponse, error) {
	f := s.GetFields()
	resp := &CreateForInferenceResponse{
		ID:                 f["id"].GetStringValue(),
		MinRequiredSamples: int(f["min_required_samples"].GetNumberValue()),
	}
	for _, v := range f["associated_files"].GetListValue().GetValues() {
		resp.AssociatedFiles = append(resp.AssociatedFiles, v.GetStringValue())
	}
	if md := f["metadata"].GetStructValue(); md != nil {
		b, err := md.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("metadata json: %w", err)
		}
		resp.MetadataJSON = b
	}
	return resp, nil
}

func idRequest(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"id": structpb.NewStringValue(id)}}
}

func recordToStruct(rec controller.MetadataRecord) (*structpb.Struct, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata record: %w", err)
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("convert metadata record: %w", err)
	}
	return s, nil
}

func recordFromStruct(s *structpb.Struct) (controller.MetadataRecord, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return controller.MetadataRecord{}, fmt.Errorf("convert metadata record: %w", err)
	}
	var rec controller.MetadataRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return controller.MetadataRecord{}, fmt.Errorf("unmarshal metadata record: %w", err)
	}
	return rec, nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func stringList(ss []string) *structpb.ListValue {
	vals := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		vals[i] = structpb.NewStringValue(s)
	}
	return &structpb.ListValue{Values: vals}
}
