package grpcwriter

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennethnrk/audiometa/internal/registry/controller"
)

// Client calls a remote metadata writer service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// MaxMsgSizeDialOption raises the per-call send and receive limits of a
// connection to n bytes.
func MaxMsgSizeDialOption(n int) grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(n), grpc.MaxCallRecvMsgSize(n))
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateForInference asks the server to build and store metadata.
func (c *Client) CreateForInference(ctx context.Context, req *CreateForInferenceRequest, opts ...grpc.CallOption) (*CreateForInferenceResponse, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, err
	}
	out, err := c.invoke(ctx, methodCreateForInference, in, opts...)
	if err != nil {
		return nil, err
	}
	return createResponseFromStruct(out)
}

// GetMetadata fetches a stored record.
func (c *Client) GetMetadata(ctx context.Context, id string, opts ...grpc.CallOption) (controller.MetadataRecord, error) {
	out, err := c.invoke(ctx, methodGetMetadata, idRequest(id), opts...)
	if err != nil {
		return controller.MetadataRecord{}, err
	}
	return recordFromStruct(out)
}

// ListMetadata fetches every stored record.
func (c *Client) ListMetadata(ctx context.Context, opts ...grpc.CallOption) ([]controller.MetadataRecord, error) {
	out, err := c.invoke(ctx, methodListMetadata, &structpb.Struct{}, opts...)
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["records"].GetListValue().GetValues()
	records := make([]controller.MetadataRecord, 0, len(values))
	for _, v := range values {
		rec, err := recordFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteMetadata removes a stored record.
func (c *Client) DeleteMetadata(ctx context.Context, id string, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, methodDeleteMetadata, idRequest(id), opts...)
	return err
}
