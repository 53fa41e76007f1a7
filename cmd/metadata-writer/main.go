package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kennethnrk/audiometa/internal/common/constants"
	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/metadata/audioclassifier"
	"github.com/kennethnrk/audiometa/internal/modelinfo"
	grpcwriter "github.com/kennethnrk/audiometa/internal/registry/api/grpc"
)

type options struct {
	modelPath    string
	sampleRate   int
	channels     int
	minSamples   int
	labels       string
	calibFile    string
	calibType    string
	defaultScore float64
	format       string
	onnxLib      string
	out          string
	addr         string
	maxMsgSize   int
}

func main() {
	var o options
	flag.StringVar(&o.modelPath, "model", "", "Path to the model file (required)")
	flag.IntVar(&o.sampleRate, "sample-rate", 0, "Sample rate in Hz the audio was captured at")
	flag.IntVar(&o.channels, "channels", 1, "Channel count of the audio")
	flag.IntVar(&o.minSamples, "min-samples", 0, "Minimum required per-channel samples (0 derives it from a fixed-size input tensor)")
	flag.StringVar(&o.labels, "labels", "", "Comma-separated label file paths")
	flag.StringVar(&o.calibFile, "calibration-file", "", "Score calibration file path")
	flag.StringVar(&o.calibType, "calibration-type", string(constants.ScoreTransformationIdentity), "Score transformation: IDENTITY, LOG or INVERSE_LOGISTIC")
	flag.Float64Var(&o.defaultScore, "default-score", 0, "Default score used when calibration parameters are missing for a class")
	flag.StringVar(&o.format, "format", string(constants.ModelFormatTFLite), "Model format: tflite or onnx")
	flag.StringVar(&o.onnxLib, "onnx-lib", os.Getenv("ONNXRUNTIME_LIB_PATH"), "ONNX Runtime shared library path")
	flag.StringVar(&o.out, "out", "", "Write the metadata JSON here instead of stdout")
	flag.StringVar(&o.addr, "addr", "", "Metadata server address; when set the request is sent there and recorded")
	flag.IntVar(&o.maxMsgSize, "max-msg-size", constants.DefaultMaxMsgSize, "Largest gRPC message in bytes when -addr is set")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	if o.modelPath == "" {
		return errors.New("-model is required")
	}
	model, err := os.ReadFile(o.modelPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	var labelPaths []string
	for _, p := range strings.Split(o.labels, ",") {
		if p = strings.TrimSpace(p); p != "" {
			labelPaths = append(labelPaths, p)
		}
	}

	var calib *metadata.ScoreCalibrationInfo
	if o.calibFile != "" {
		calib = &metadata.ScoreCalibrationInfo{
			TransformationType: constants.ScoreTransformationType(strings.ToUpper(o.calibType)),
			DefaultScore:       o.defaultScore,
			FilePath:           o.calibFile,
		}
	}

	var (
		js    []byte
		files []string
	)
	if o.addr != "" {
		js, files, err = writeRemote(o.addr, o.maxMsgSize, &grpcwriter.CreateForInferenceRequest{
			Model:              model,
			SampleRate:         o.sampleRate,
			Channels:           o.channels,
			MinRequiredSamples: o.minSamples,
			LabelFilePaths:     labelPaths,
			ScoreCalibration:   calib,
		})
	} else {
		js, files, err = writeLocal(constants.ModelFormat(o.format), o.onnxLib, model, o.sampleRate, o.channels, o.minSamples, labelPaths, calib)
	}
	if err != nil {
		return err
	}

	if o.out == "" {
		if _, err := os.Stdout.Write(append(js, '\n')); err != nil {
			return fmt.Errorf("write metadata to stdout: %w", err)
		}
	} else if err := os.WriteFile(o.out, js, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	log.Printf("Associated files to pack with the model: %v", files)
	return nil
}

func writeLocal(format constants.ModelFormat, onnxLib string, model []byte, sampleRate, channels, minSamples int, labelPaths []string, calib *metadata.ScoreCalibrationInfo) ([]byte, []string, error) {
	inspector, closeInspector, err := modelinfo.New(format, onnxLib)
	if err != nil {
		return nil, nil, fmt.Errorf("init %s inspector: %w", format, err)
	}
	defer func() {
		if err := closeInspector(); err != nil {
			log.Printf("Failed to close %s inspector: %v", format, err)
		}
	}()

	w, err := audioclassifier.NewBuilder(inspector).CreateForInference(model, sampleRate, channels, minSamples, labelPaths, calib)
	if err != nil {
		return nil, nil, fmt.Errorf("create metadata: %w", err)
	}
	log.Printf("Resolved min_required_samples = %d", w.InputInfo().MinRequiredSamples)

	js, err := w.MetadataJSON()
	if err != nil {
		return nil, nil, fmt.Errorf("render metadata: %w", err)
	}
	return js, w.AssociatedFiles(), nil
}

func writeRemote(addr string, maxMsgSize int, req *grpcwriter.CreateForInferenceRequest) ([]byte, []string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpcwriter.MaxMsgSizeDialOption(maxMsgSize),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := grpcwriter.NewClient(conn).CreateForInference(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("create metadata on %s: %w", addr, err)
	}
	log.Printf("Metadata recorded with ID %s (min_required_samples = %d)", resp.ID, resp.MinRequiredSamples)
	return resp.MetadataJSON, resp.AssociatedFiles, nil
}
