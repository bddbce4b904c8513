// Package dcs implements the legacy third-party verification service. The
// request is a signed JOSE object posted over TLS; the 200 response body is
// itself a JOSE object that must be unwrapped before it can be read.
package dcs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"passport-cri/internal/document/metrics"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
)

const (
	serviceName  = "dcs"
	metricPrefix = "dcs"

	contentTypeJOSE = "application/jose"
)

// Service performs document checks against the DCS endpoint.
type Service struct {
	endpoint string
	client   provider.HTTPDoer
	envelope *Envelope
	probe    metrics.Probe
	log      *slog.Logger

	// logReplies gates debug logging of raw reply bodies; off by default.
	logReplies bool
}

// Option configures the Service.
type Option func(*Service)

// WithReplyLogging enables debug-level logging of raw DCS reply bodies.
func WithReplyLogging(enabled bool) Option {
	return func(s *Service) { s.logReplies = enabled }
}

func New(endpoint string, client provider.HTTPDoer, envelope *Envelope, probe metrics.Probe, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		endpoint: endpoint,
		client:   client,
		envelope: envelope,
		probe:    probe,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Name() string { return serviceName }

// PerformCheck signs the form data into a JOSE envelope, posts it, unwraps
// the reply, and maps it to the canonical result. Each stage increments its
// counter exactly once, in call order.
func (s *Service) PerformCheck(ctx context.Context, form models.PassportFormData) (*models.ThirdPartyAPIResult, error) {
	body, err := s.envelope.PreparePayload(form)
	if err != nil {
		s.log.Error("failed to prepare document check payload", "provider", serviceName)
		return nil, provider.NewError(provider.StagePayloadPreparation, serviceName, "failed to prepare payload", err)
	}
	s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.RequestCreated))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, provider.NewError(provider.StagePayloadPreparation, serviceName, "failed to create request", err)
	}
	req.Header.Set("Content-Type", contentTypeJOSE)

	s.log.Info("submitting document check request to third party", "provider", serviceName)
	resp, err := s.client.Do(req)
	if err != nil {
		s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.RequestSendError))
		return nil, provider.NewError(provider.StageDispatch, serviceName, "failed to execute request", err)
	}
	defer resp.Body.Close()
	s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.RequestSendOK))

	replyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.StageDispatch, serviceName, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.ResponseTypeUnexpectedStatus))
		s.log.Error("third party replied with unexpected http status", "provider", serviceName, "status", resp.StatusCode)
		s.log.Debug("unexpected status reply body", "provider", serviceName, "body", string(replyBytes))
		return nil, provider.NewError(provider.StageUnexpectedStatus, serviceName, "unexpected http status", nil)
	}
	s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.ResponseTypeExpectedStatus))

	if s.logReplies {
		s.log.Debug("dcs reply body", "body", string(replyBytes))
	}

	reply, err := s.envelope.Unwrap(string(replyBytes))
	if err != nil {
		// The unwrap error is opaque; nothing from the envelope contents may
		// reach the log.
		s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.ResponseTypeInvalid))
		return nil, provider.NewError(provider.StageResponseUnwrap, serviceName, "failed to unwrap response", err)
	}

	// A provider-side error flag is non-recoverable and distinct from a
	// normal negative verification.
	if reply.Error {
		s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.ResponseTypeError))
		s.log.Error("dcs reported an error response", "error_message", reply.ErrorMessage)
		return nil, provider.NewError(provider.StageProviderReported, serviceName, "provider reported an error response", nil)
	}

	s.probe.CounterMetric(metrics.Name(metricPrefix, metrics.ResponseTypeValid))
	return &models.ThirdPartyAPIResult{
		Valid:         reply.Valid,
		TransactionID: reply.RequestID,
		Source:        models.SourceDCS,
	}, nil
}

var _ provider.API = (*Service)(nil)
