// Package provider defines the contract shared by the third-party document
// verification services and the normalized failure taxonomy they report.
//
// Two implementations exist: the legacy DCS service (JOSE over TLS) and the
// modern DVAD service (GraphQL with a cached bearer token). Which one handles
// a check is a configuration-time decision made when the document service is
// constructed, never runtime dispatch on type inspection.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"passport-cri/internal/document/models"
)

// API is the contract every third-party verification service implements.
type API interface {
	// Name returns the service name for logging and provider selection.
	Name() string

	// PerformCheck verifies the passport form data against the provider and
	// returns the canonical result. Failures are reported as *Error with the
	// stage that failed.
	PerformCheck(ctx context.Context, form models.PassportFormData) (*models.ThirdPartyAPIResult, error)
}

// Stage identifies where in the check pipeline a failure occurred.
type Stage string

const (
	StagePayloadPreparation Stage = "payload_preparation"
	StageDispatch           Stage = "dispatch"
	StageResponseUnwrap     Stage = "response_unwrap"
	StageProviderReported   Stage = "provider_reported_error"
	StageUnexpectedStatus   Stage = "unexpected_status"
)

// Error wraps a provider failure with the pipeline stage it occurred in.
// Crypto unwrap failures never carry payload content in Message or Err.
type Error struct {
	Stage    Stage
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a stage-tagged provider error.
func NewError(stage Stage, providerName, message string, err error) *Error {
	return &Error{Stage: stage, Provider: providerName, Message: message, Err: err}
}

// IsStage reports whether err is a provider error for the given stage.
func IsStage(err error, stage Stage) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage == stage
	}
	return false
}

// HTTPDoer is the minimal interface needed from an HTTP client. Tests
// substitute it to script transport outcomes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a client with explicit connect and overall timeouts.
// Unbounded waits on a third-party endpoint are a backpressure hazard, so
// both are mandatory.
func NewHTTPClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: requestTimeout,
		},
	}
}
