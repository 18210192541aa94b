package rpc

import (
	"context"

	"google.golang.org/grpc"

	"trans-gate/internal/wire"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "transgate.TransAgentService"

const (
	methodAgentInfo      = "/" + ServiceName + "/AgentInfo"
	methodUsabilityCheck = "/" + ServiceName + "/UsabilityCheck"
	methodTranslate      = "/" + ServiceName + "/Translate"
)

// AgentServer is implemented by the gateway service.
type AgentServer interface {
	AgentInfo(ctx context.Context, req *wire.AgentInfoRequest) (*wire.AgentInfoResponse, error)
	UsabilityCheck(ctx context.Context, req *wire.UsabilityCheckRequest) (*wire.UsabilityCheckResponse, error)
	Translate(req *wire.TranslateRequest, stream TranslateStream) error
}

// TranslateStream is the server side of the translate response stream.
type TranslateStream interface {
	Send(*wire.TranslateResponse) error
	Context() context.Context
}

// RegisterAgentServer registers the gateway service on a gRPC server.
func RegisterAgentServer(s grpc.ServiceRegistrar, srv AgentServer) {
	s.RegisterService(&agentServiceDesc, srv)
}

var agentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AgentInfo", Handler: agentInfoHandler},
		{MethodName: "UsabilityCheck", Handler: usabilityCheckHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Translate", Handler: translateHandler, ServerStreams: true},
	},
	Metadata: "transgate",
}

func agentInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.AgentInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServer).AgentInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAgentInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServer).AgentInfo(ctx, req.(*wire.AgentInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func usabilityCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.UsabilityCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServer).UsabilityCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodUsabilityCheck}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServer).UsabilityCheck(ctx, req.(*wire.UsabilityCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func translateHandler(srv any, stream grpc.ServerStream) error {
	in := new(wire.TranslateRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AgentServer).Translate(in, &translateServerStream{stream})
}

type translateServerStream struct {
	grpc.ServerStream
}

func (s *translateServerStream) Send(resp *wire.TranslateResponse) error {
	return s.SendMsg(resp)
}
