package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/registry/store"
)

const metadataKeyPrefix = "metadata:"

// MetadataRecord is the persisted form of a generated metadata writer.
type MetadataRecord struct {
	ID                 string                         `json:"id"`
	ModelName          string                         `json:"model_name"`
	ModelSize          int64                          `json:"model_size"`
	SampleRate         int                            `json:"sample_rate"`
	Channels           int                            `json:"channels"`
	MinRequiredSamples int                            `json:"min_required_samples"`
	OutputTensorType   constants.TensorType           `json:"output_tensor_type"`
	LabelFiles         []metadata.LabelFileInfo       `json:"label_files"`
	ScoreCalibration   *metadata.ScoreCalibrationInfo `json:"score_calibration,omitempty"`
	AssociatedFiles    []string                       `json:"associated_files"`
	MetadataJSON       json.RawMessage                `json:"metadata_json"`
	CreatedAt          time.Time                      `json:"created_at"`
}

// NewMetadataRecord captures everything w describes under id.
func NewMetadataRecord(id string, w *metadata.Writer, createdAt time.Time) (MetadataRecord, error) {
	js, err := w.MetadataJSON()
	if err != nil {
		return MetadataRecord{}, fmt.Errorf("render metadata: %w", err)
	}
	in := w.InputInfo()
	out := w.OutputInfo()
	return MetadataRecord{
		ID:                 id,
		ModelName:          w.GeneralInfo().Name,
		ModelSize:          int64(len(w.ModelBuffer())),
		SampleRate:         in.SampleRate,
		Channels:           in.Channels,
		MinRequiredSamples: in.MinRequiredSamples,
		OutputTensorType:   out.TensorType,
		LabelFiles:         out.LabelFiles,
		ScoreCalibration:   out.ScoreCalibration,
		AssociatedFiles:    w.AssociatedFiles(),
		MetadataJSON:       json.RawMessage(js),
		CreatedAt:          createdAt,
	}, nil
}

// RegisterMetadata stores rec under metadataID.
func RegisterMetadata(s *store.Store, metadataID string, rec MetadataRecord) error {
	if metadataID == "" {
		return errors.New("metadataID cannot be empty")
	}

	if rec.ID == "" {
		rec.ID = metadataID
	} else if rec.ID != metadataID {
		return fmt.Errorf("metadata record ID %q does not match metadataID %q", rec.ID, metadataID)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal metadata record: %w", err)
	}
	if err := s.Put(metadataKeyPrefix+metadataID, b); err != nil {
		return err
	}
	log.Printf("Registered metadata %s for model %q (%d associated files)", metadataID, rec.ModelName, len(rec.AssociatedFiles))
	return nil
}

// DeRegisterMetadata removes a metadata record.
func DeRegisterMetadata(s *store.Store, metadataID string) error {
	if metadataID == "" {
		return errors.New("metadataID cannot be empty")
	}
	return s.Delete(metadataKeyPrefix + metadataID)
}

// GetMetadataByID loads a record by ID.
// Returns (zero MetadataRecord, false, nil) if it is not found.
func GetMetadataByID(s *store.Store, metadataID string) (MetadataRecord, bool, error) {
	if metadataID == "" {
		return MetadataRecord{}, false, errors.New("metadataID cannot be empty")
	}

	raw, ok := s.Get(metadataKeyPrefix + metadataID)
	if !ok {
		return MetadataRecord{}, false, nil
	}

	var rec MetadataRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return MetadataRecord{}, false, fmt.Errorf("unmarshal metadata record: %w", err)
	}
	return rec, true, nil
}

// ListMetadata returns every stored record ordered by ID.
func ListMetadata(s *store.Store) ([]MetadataRecord, error) {
	keys := s.Keys(metadataKeyPrefix)
	records := make([]MetadataRecord, 0, len(keys))

	for _, k := range keys {
		raw, ok := s.Get(k)
		if !ok {
			continue
		}
		var rec MetadataRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal metadata %q: %w", strings.TrimPrefix(k, metadataKeyPrefix), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
