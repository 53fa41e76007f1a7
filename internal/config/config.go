// Package config loads the metadata server configuration from an optional
// YAML file, then applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kennethnrk/audiometa/internal/common/constants"
)

// Environment variables that override file values.
const (
	EnvDataDir     = "METADATA_STORE_DATA_DIR"
	EnvGRPCAddr    = "METADATA_GRPC_ADDR"
	EnvModelFormat = "METADATA_MODEL_FORMAT"
	EnvONNXLibPath = "ONNXRUNTIME_LIB_PATH"
	EnvMaxMsgSize  = "METADATA_GRPC_MAX_MSG_SIZE"
)

// Config is the metadata server configuration.
type Config struct {
	// GRPCAddr is the listen address of the gRPC server.
	GRPCAddr string `yaml:"grpc_addr"`

	// DataDir holds the metadata store WAL.
	DataDir string `yaml:"data_dir"`

	// ModelFormat selects the model inspector: "tflite" or "onnx".
	ModelFormat constants.ModelFormat `yaml:"model_format"`

	// ONNXRuntimeLibPath is the ONNX Runtime shared library, only used when
	// ModelFormat is "onnx".
	ONNXRuntimeLibPath string `yaml:"onnxruntime_lib_path,omitempty"`

	// MaxMsgSize is the largest gRPC message, in bytes, the server sends or
	// receives. Requests carry the whole model.
	MaxMsgSize int `yaml:"max_msg_size"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		GRPCAddr:    ":50061",
		DataDir:     filepath.Join(".", "data", "metadata-store"),
		ModelFormat: constants.ModelFormatTFLite,
		MaxMsgSize:  constants.DefaultMaxMsgSize,
	}
}

// Load reads path (if non-empty) over the defaults and applies environment
// overrides. A missing file at path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvGRPCAddr); v != "" {
		c.GRPCAddr = v
	}
	if v := os.Getenv(EnvModelFormat); v != "" {
		c.ModelFormat = constants.ModelFormat(v)
	}
	if v := os.Getenv(EnvONNXLibPath); v != "" {
		c.ONNXRuntimeLibPath = v
	}
	if v := os.Getenv(EnvMaxMsgSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxMsgSize, err)
		}
		c.MaxMsgSize = n
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("grpc_addr cannot be empty")
	}
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if c.MaxMsgSize <= 0 {
		return fmt.Errorf("max_msg_size should be positive, but got %d", c.MaxMsgSize)
	}
	switch c.ModelFormat {
	case constants.ModelFormatTFLite, constants.ModelFormatONNX:
	default:
		return fmt.Errorf("unsupported model_format %q", c.ModelFormat)
	}
	return nil
}
