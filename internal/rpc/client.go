package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls shortlink.v1.MappingService
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

// Create shortens an URL
func (c *Client) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*Mapping, error) {
	out := new(Mapping)
	if err := c.invoke(ctx, createMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a mapping without counting a hit
func (c *Client) Get(ctx context.Context, in *ShortKeyRequest, opts ...grpc.CallOption) (*Mapping, error) {
	out := new(Mapping)
	if err := c.invoke(ctx, getMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve counts a hit and returns the updated mapping
func (c *Client) Resolve(ctx context.Context, in *ShortKeyRequest, opts ...grpc.CallOption) (*Mapping, error) {
	out := new(Mapping)
	if err := c.invoke(ctx, resolveMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a mapping
func (c *Client) Delete(ctx context.Context, in *ShortKeyRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	out := new(DeleteResponse)
	if err := c.invoke(ctx, deleteMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
