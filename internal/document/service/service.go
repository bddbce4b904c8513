// Package service orchestrates one document verification: provider check,
// result synthesis, persistence, and audit. The provider is chosen once at
// construction time from configuration.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"passport-cri/internal/audit"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	"passport-cri/internal/document/result"
	"passport-cri/internal/document/store"
	"passport-cri/internal/document/tracer"
)

// CheckOutcome is what the handler layer receives: either a persisted result
// or a retry request for the user.
type CheckOutcome struct {
	Retry  bool
	Result *models.DocumentCheckResult
}

// Service runs the check pipeline. Each invocation is a synchronous blocking
// pipeline; the only shared mutable state lives inside the provider (the
// DVAD token cache).
type Service struct {
	api         provider.API
	synthesizer *result.Synthesizer
	results     store.Store
	events      audit.Publisher
	trace       tracer.Tracer
	log         *slog.Logger
}

func New(api provider.API, synthesizer *result.Synthesizer, results store.Store, events audit.Publisher, trace tracer.Tracer, log *slog.Logger) *Service {
	return &Service{
		api:         api,
		synthesizer: synthesizer,
		results:     results,
		events:      events,
		trace:       trace,
		log:         log,
	}
}

// ProviderName reports which third-party service handles checks.
func (s *Service) ProviderName() string { return s.api.Name() }

// CheckPassport verifies the form data and persists the derived result under
// the session key. A retry outcome is surfaced untouched and nothing is
// persisted for it; errors leave no partial state behind.
func (s *Service) CheckPassport(ctx context.Context, sessionID string, form models.PassportFormData) (*CheckOutcome, error) {
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("invalid passport form data: %w", err)
	}

	ctx, span := s.trace.Start(ctx, tracer.SpanDocumentCheck,
		tracer.String(tracer.AttrProvider, s.api.Name()),
		tracer.String(tracer.AttrDocumentHash, tracer.HashDocumentNumber(form.PassportNumber)),
	)

	apiResult, err := s.api.PerformCheck(ctx, form)
	if err != nil {
		span.End(err)
		return nil, err
	}

	outcome := s.synthesizer.Synthesize(*apiResult, form)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(outcome.Kind)))

	if outcome.Kind == result.OutcomeRetry {
		span.End(nil)
		s.log.Info("provider requested document data resubmission", "session_id", sessionID)
		if err := s.events.Emit(ctx, audit.Event{
			SessionID: sessionID,
			Action:    audit.ActionCheckRetryAsked,
		}); err != nil {
			s.log.Warn("failed to emit audit event", "error", err)
		}
		return &CheckOutcome{Retry: true}, nil
	}

	checkResult := outcome.Result
	if err := checkResult.CheckInvariants(); err != nil {
		span.End(err)
		return nil, err
	}
	span.SetAttributes(
		tracer.Bool(tracer.AttrVerified, checkResult.Verified),
		tracer.Int(tracer.AttrValidityScore, checkResult.ValidityScore),
		tracer.Int(tracer.AttrStrengthScore, checkResult.StrengthScore),
	)

	if err := s.results.Put(ctx, sessionID, *checkResult); err != nil {
		span.End(err)
		return nil, fmt.Errorf("failed to persist document check result: %w", err)
	}
	span.End(nil)

	if err := s.events.Emit(ctx, audit.Event{
		SessionID: sessionID,
		Action:    audit.ActionCheckCompleted,
		Extension: map[string]any{
			"verified":          checkResult.Verified,
			"strength_score":    checkResult.StrengthScore,
			"validity_score":    checkResult.ValidityScore,
			"contra_indicators": checkResult.ContraIndicators,
			"source":            checkResult.Source,
		},
	}); err != nil {
		s.log.Warn("failed to emit audit event", "error", err)
	}

	s.log.Info("document check completed",
		"session_id", sessionID,
		"provider", s.api.Name(),
		"verified", checkResult.Verified,
	)
	return &CheckOutcome{Result: checkResult}, nil
}
