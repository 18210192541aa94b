package rpc

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"trans-gate/internal/wire"
)

// fakeAgent is a minimal server implementation exercising all three methods
// over a real gRPC connection.
type fakeAgent struct {
	translateErr error
}

func (a *fakeAgent) AgentInfo(ctx context.Context, req *wire.AgentInfoRequest) (*wire.AgentInfoResponse, error) {
	return &wire.AgentInfoResponse{
		KeyVerificationResult: req.Ciphertext == "valid",
		AgentVersion:          "test",
		Engines:               []wire.Engine{{Code: "acme", Name: "Acme"}},
	}, nil
}

func (a *fakeAgent) UsabilityCheck(ctx context.Context, req *wire.UsabilityCheckRequest) (*wire.UsabilityCheckResponse, error) {
	return &wire.UsabilityCheckResponse{Ct: req.Ct, At: time.Now().UnixMilli(), Result: true}, nil
}

func (a *fakeAgent) Translate(req *wire.TranslateRequest, stream TranslateStream) error {
	if a.translateErr != nil {
		return a.translateErr
	}
	for _, payload := range req.InputDataList {
		if err := stream.Send(&wire.TranslateResponse{
			RequestID:      req.RequestID,
			OutputDataList: []string{payload},
		}); err != nil {
			return err
		}
	}
	return stream.Send(&wire.TranslateResponse{
		RequestID:              req.RequestID,
		IsAllItemTransFinished: true,
	})
}

func dialAgent(t *testing.T, srv AgentServer) *AgentClient {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	RegisterAgentServer(server, srv)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewAgentClient(conn)
}

func TestAgentInfoRoundTrip(t *testing.T) {
	client := dialAgent(t, &fakeAgent{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.AgentInfo(ctx, &wire.AgentInfoRequest{ClientVersion: "1.0", Ciphertext: "valid"})
	require.NoError(t, err)
	assert.True(t, resp.KeyVerificationResult)
	assert.Equal(t, "test", resp.AgentVersion)
	require.Len(t, resp.Engines, 1)
	assert.Equal(t, "acme", resp.Engines[0].Code)
}

func TestUsabilityCheckRoundTrip(t *testing.T) {
	client := dialAgent(t, &fakeAgent{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.UsabilityCheck(ctx, &wire.UsabilityCheckRequest{EngineCode: "acme", Ct: 12345})
	require.NoError(t, err)
	assert.True(t, resp.Result)
	assert.Equal(t, int64(12345), resp.Ct)
	assert.Positive(t, resp.At)
}

func TestTranslateStreaming(t *testing.T) {
	client := dialAgent(t, &fakeAgent{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Translate(ctx, &wire.TranslateRequest{
		RequestID:     "req-1",
		EngineCode:    "acme",
		TargetLang:    "es",
		InputDataList: []string{"p1", "p2"},
	})
	require.NoError(t, err)

	var msgs []*wire.TranslateResponse
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}

	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"p1"}, msgs[0].OutputDataList)
	assert.Equal(t, []string{"p2"}, msgs[1].OutputDataList)
	assert.False(t, msgs[0].IsAllItemTransFinished)
	assert.True(t, msgs[2].IsAllItemTransFinished)
	assert.Equal(t, "req-1", msgs[2].RequestID)
}

func TestTranslateServerError(t *testing.T) {
	client := dialAgent(t, &fakeAgent{
		translateErr: status.Error(codes.PermissionDenied, "unable to decrypt request payload"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Translate(ctx, &wire.TranslateRequest{RequestID: "req-1"})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
