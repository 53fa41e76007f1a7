package grpcwriter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennethnrk/audiometa/internal/metadata"
	"github.com/kennethnrk/audiometa/internal/metadata/audioclassifier"
	"github.com/kennethnrk/audiometa/internal/modelinfo"
	"github.com/kennethnrk/audiometa/internal/registry/controller"
	"github.com/kennethnrk/audiometa/internal/registry/store"
)

// metadataWriterServer implements MetadataWriterAPIServer.
type metadataWriterServer struct {
	store   *store.Store
	builder *audioclassifier.Builder
	now     func() time.Time
}

// NewMetadataWriterServer creates a server that builds metadata with b and
// records it in s.
func NewMetadataWriterServer(s *store.Store, b *audioclassifier.Builder) MetadataWriterAPIServer {
	return &metadataWriterServer{
		store:   s,
		builder: b,
		now:     time.Now,
	}
}

// CreateForInference validates the parameters, builds the metadata and
// stores it under a new ID.
func (s *metadataWriterServer) CreateForInference(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	req, err := createRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	w, err := s.builder.CreateForInference(req.Model, req.SampleRate, req.Channels, req.MinRequiredSamples, req.LabelFilePaths, req.ScoreCalibration)
	if err != nil {
		return nil, builderStatus(err)
	}

	metadataID := uuid.New().String()
	rec, err := controller.NewMetadataRecord(metadataID, w, s.now().UTC())
	if err != nil {
		return nil, builderStatus(err)
	}
	if err := controller.RegisterMetadata(s.store, metadataID, rec); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := &CreateForInferenceResponse{
		ID:                 metadataID,
		MinRequiredSamples: rec.MinRequiredSamples,
		AssociatedFiles:    rec.AssociatedFiles,
		MetadataJSON:       rec.MetadataJSON,
	}
	out, err := resp.toStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// GetMetadata retrieves a record by ID.
func (s *metadataWriterServer) GetMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "metadata ID cannot be empty")
	}

	rec, found, err := controller.GetMetadataByID(s.store, id)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !found {
		return nil, status.Error(codes.NotFound, "metadata not found")
	}

	out, err := recordToStruct(rec)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListMetadata returns all records.
func (s *metadataWriterServer) ListMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	records, err := controller.ListMetadata(s.store)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	vals := make([]*structpb.Value, len(records))
	for i, rec := range records {
		st, err := recordToStruct(rec)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		vals[i] = structpb.NewStructValue(st)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"records": structpb.NewListValue(&structpb.ListValue{Values: vals}),
	}}, nil
}

// DeleteMetadata removes a record.
func (s *metadataWriterServer) DeleteMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "metadata ID cannot be empty")
	}
	if err := controller.DeRegisterMetadata(s.store, id); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"success": structpb.NewBoolValue(true),
	}}, nil
}

// builderStatus maps caller mistakes (bad parameters or an unreadable model)
// to InvalidArgument and everything else to Internal.
func builderStatus(err error) error {
	switch {
	case errors.Is(err, metadata.ErrInvalidParameter), errors.Is(err, modelinfo.ErrMalformedModel):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// NewGRPCServer returns a gRPC server with the metadata writer service
// registered.
func NewGRPCServer(s *store.Store, b *audioclassifier.Builder, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	RegisterMetadataWriterAPIServer(srv, NewMetadataWriterServer(s, b))
	return srv
}

// MaxMsgSizeServerOptions raises the receive and send limits of a server to
// n bytes.
func MaxMsgSizeServerOptions(n int) []grpc.ServerOption {
	return []grpc.ServerOption{grpc.MaxRecvMsgSize(n), grpc.MaxSendMsgSize(n)}
}
