package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/modelinfo"
	"github.com/kennethnrk/audiometa/internal/modelinfo/tflitetest"
)

func writeModel(t *testing.T, model []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.tflite")
	require.NoError(t, os.WriteFile(path, model, 0o644))
	return path
}

func TestRunWritesMetadataFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "metadata.json")
	err := run(options{
		modelPath:  writeModel(t, tflitetest.AudioModel([]int32{1, 15600}, tflitetest.TypeFloat32)),
		sampleRate: 16000,
		channels:   1,
		labels:     "labels.txt, ,labels_fr.txt",
		format:     string(constants.ModelFormatTFLite),
		out:        out,
	})
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var md map[string]any
	require.NoError(t, json.Unmarshal(b, &md))
	assert.Equal(t, constants.ModelName, md["name"])
}

func TestRunReturnsErrors(t *testing.T) {
	err := run(options{})
	assert.ErrorContains(t, err, "-model")

	err = run(options{modelPath: filepath.Join(t.TempDir(), "missing.tflite")})
	assert.ErrorContains(t, err, "read model")

	model := writeModel(t, tflitetest.AudioModel([]int32{1, 16000}, tflitetest.TypeFloat32))
	err = run(options{modelPath: model, sampleRate: 0, channels: 1, format: string(constants.ModelFormatTFLite)})
	assert.ErrorIs(t, err, metadata.ErrInvalidParameter)

	err = run(options{modelPath: writeModel(t, []byte("garbage!")), sampleRate: 16000, channels: 1, format: string(constants.ModelFormatTFLite)})
	assert.ErrorIs(t, err, modelinfo.ErrMalformedModel)

	err = run(options{modelPath: model, sampleRate: 16000, channels: 1, format: "savedmodel"})
	assert.ErrorContains(t, err, "inspector")
}
