package rpc

import (
	"context"

	"google.golang.org/grpc"

	"trans-gate/internal/wire"
)

// AgentClient calls the gateway service. Requests are sent with the JSON
// content subtype so both ends use the registered codec.
type AgentClient struct {
	cc grpc.ClientConnInterface
}

func NewAgentClient(cc grpc.ClientConnInterface) *AgentClient {
	return &AgentClient{cc: cc}
}

func (c *AgentClient) callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *AgentClient) AgentInfo(ctx context.Context, req *wire.AgentInfoRequest, opts ...grpc.CallOption) (*wire.AgentInfoResponse, error) {
	out := new(wire.AgentInfoResponse)
	if err := c.cc.Invoke(ctx, methodAgentInfo, req, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AgentClient) UsabilityCheck(ctx context.Context, req *wire.UsabilityCheckRequest, opts ...grpc.CallOption) (*wire.UsabilityCheckResponse, error) {
	out := new(wire.UsabilityCheckResponse)
	if err := c.cc.Invoke(ctx, methodUsabilityCheck, req, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// TranslateClientStream receives streamed translate responses.
type TranslateClientStream struct {
	grpc.ClientStream
}

func (s *TranslateClientStream) Recv() (*wire.TranslateResponse, error) {
	out := new(wire.TranslateResponse)
	if err := s.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AgentClient) Translate(ctx context.Context, req *wire.TranslateRequest, opts ...grpc.CallOption) (*TranslateClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &agentServiceDesc.Streams[0], methodTranslate, c.callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &TranslateClientStream{ClientStream: stream}, nil
}
