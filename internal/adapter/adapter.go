// Package adapter holds the backend adapter implementations. Each adapter
// registers its constructor at init and wraps one of the three dispatch
// strategies around a provider-specific send primitive.
package adapter

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/translator"
)

// credentialSetting reads a credential from adapter settings, falling back to
// an environment variable when the settings file does not carry it.
func credentialSetting(settings map[string]any, key, envVar string) string {
	if v := translator.StringSetting(settings, key, ""); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// statusFromResponse converts a non-2xx backend response into a status error.
// The body is included truncated for diagnostics.
func statusFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("backend returned HTTP %d: %s", resp.StatusCode, string(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return status.Error(codes.ResourceExhausted, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return status.Error(codes.PermissionDenied, msg)
	case resp.StatusCode == http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, msg)
	case resp.StatusCode >= 500:
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Unknown, msg)
	}
}
