// Package gateway implements the RPC-facing translation service: key
// verification, engine discovery, usability probing, and the streaming
// translate operation that bridges adapter callbacks onto the response
// stream.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/encryption"
	"trans-gate/internal/models"
	"trans-gate/internal/registry"
	"trans-gate/internal/rpc"
	"trans-gate/internal/translator"
	"trans-gate/internal/version"
	"trans-gate/internal/wire"
)

// usabilityProbeTimeout bounds the round trip of one probe translation.
const usabilityProbeTimeout = 15 * time.Second

// RequestRecorder receives one log entry per completed translation request.
type RequestRecorder interface {
	Record(entry models.RequestLog)
}

// Service implements rpc.AgentServer.
type Service struct {
	codec    *encryption.Codec
	registry *registry.Registry
	recorder RequestRecorder
}

// NewService builds the gateway service. recorder may be nil when request
// logging is disabled.
func NewService(codec *encryption.Codec, reg *registry.Registry, recorder RequestRecorder) *Service {
	return &Service{codec: codec, registry: reg, recorder: recorder}
}

// AgentInfo reports the gateway version, the engines served by loaded
// adapters, and, when the client supplies a ciphertext/plaintext pair, proof
// that both sides hold the same key.
func (s *Service) AgentInfo(_ context.Context, req *wire.AgentInfoRequest) (*wire.AgentInfoResponse, error) {
	verified := false
	if req.Ciphertext != "" {
		verified = s.codec.VerifyKey(req.Ciphertext, req.Plaintext)
	}

	logrus.WithFields(logrus.Fields{
		"client_version": req.ClientVersion,
		"key_verified":   verified,
	}).Debug("AgentInfo request")

	return &wire.AgentInfoResponse{
		KeyVerificationResult: verified,
		AgentVersion:          version.Version,
		AgentVersionNumber:    version.BuildNumber,
		Engines:               s.registry.Engines(),
	}, nil
}

// UsabilityCheck runs one tiny probe translation through the engine's
// adapter. An unknown engine yields result=false, not an error.
func (s *Service) UsabilityCheck(ctx context.Context, req *wire.UsabilityCheckRequest) (*wire.UsabilityCheckResponse, error) {
	resp := &wire.UsabilityCheckResponse{Ct: req.Ct}

	adapter, ok := s.registry.Resolve(req.EngineCode)
	if !ok {
		resp.At = time.Now().UnixMilli()
		return resp, nil
	}

	probe := translator.Request{
		RequestID:  uuid.NewString(),
		EngineCode: req.EngineCode,
		TargetLang: "es",
		Groups: []wire.LangItem{
			{InputLang: "en", InputItemList: []wire.InputItem{{ID: 1, Input: "Hi"}}},
		},
	}

	var mu sync.Mutex
	received := 0
	failed := false
	done := make(chan bool, 1)

	adapter.Translate(probe, func(_ string, finished bool, results []wire.ResultItem, st *status.Status) {
		mu.Lock()
		received += len(results)
		if st != nil && st.Code() != codes.OK {
			failed = true
		}
		usable := !failed && received > 0
		mu.Unlock()
		if finished {
			select {
			case done <- usable:
			default:
			}
		}
	})

	select {
	case usable := <-done:
		resp.Result = usable
	case <-ctx.Done():
	case <-time.After(usabilityProbeTimeout):
		logrus.Warnf("Usability probe for engine %s timed out", req.EngineCode)
	}

	resp.At = time.Now().UnixMilli()
	return resp, nil
}

// Translate decrypts the request payload, dispatches it through the engine's
// adapter, and streams one message per callback invocation, re-encrypting
// every result item. The stream closes only after the finished message is
// written.
func (s *Service) Translate(req *wire.TranslateRequest, stream rpc.TranslateStream) error {
	start := time.Now()

	groups, err := s.codec.DecryptGroups(req.InputDataList)
	if err != nil {
		logrus.WithError(err).Warnf("Rejecting request %s: payload decryption failed", req.RequestID)
		return status.Error(codes.PermissionDenied, "unable to decrypt request payload")
	}

	adapter, ok := s.registry.Resolve(req.EngineCode)
	if !ok {
		return status.Errorf(codes.NotFound, "no adapter serves engine %q", req.EngineCode)
	}

	dispatch := translator.Request{
		RequestID:     req.RequestID,
		EngineCode:    req.EngineCode,
		TargetLang:    req.TargetLang,
		AutoTranslate: req.IsAutoTrans,
		Groups:        groups,
	}
	totalItems := dispatch.TotalItems()

	var mu sync.Mutex
	succeeded := 0
	failedUnits := 0
	var writeErr error
	done := make(chan struct{})

	adapter.Translate(dispatch, func(requestID string, finished bool, results []wire.ResultItem, st *status.Status) {
		mu.Lock()
		defer mu.Unlock()

		msg := &wire.TranslateResponse{
			RequestID:              requestID,
			IsAllItemTransFinished: finished,
		}

		encrypted, encErr := s.codec.EncryptResults(results)
		if encErr != nil {
			st = status.New(codes.Internal, "failed to encrypt results")
			logrus.WithError(encErr).Errorf("Result encryption failed for request %s", requestID)
		} else {
			msg.OutputDataList = encrypted
			succeeded += len(results)
		}
		if st != nil && st.Code() != codes.OK {
			failedUnits++
			msg.ErrorCode = int32(st.Code())
			msg.ErrorMessage = st.Message()
		}

		if writeErr == nil {
			if err := stream.Send(msg); err != nil {
				writeErr = err
				logrus.WithError(err).Warnf("Stream write failed for request %s", requestID)
			}
		}
		if finished {
			close(done)
		}
	})

	select {
	case <-done:
	case <-stream.Context().Done():
		return stream.Context().Err()
	}

	s.recordRequest(req, totalItems, succeeded, failedUnits, time.Since(start))
	mu.Lock()
	defer mu.Unlock()
	return writeErr
}

func (s *Service) recordRequest(req *wire.TranslateRequest, totalItems, succeeded, failedUnits int, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	if failedUnits > 0 {
		if succeeded == 0 {
			outcome = "failed"
		} else {
			outcome = "partial"
		}
	}
	s.recorder.Record(models.RequestLog{
		RequestID:    req.RequestID,
		EngineCode:   req.EngineCode,
		TargetLang:   req.TargetLang,
		ItemCount:    totalItems,
		SuccessCount: succeeded,
		FailedCount:  failedUnits,
		Duration:     elapsed.Milliseconds(),
		Status:       outcome,
	})
}
