// Package dvad implements the modern third-party verification service. The
// request is a GraphQL query carrying the identity fields as structured
// variables, authenticated with a cached client-credentials bearer token.
package dvad

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"passport-cri/internal/document/metrics"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	"passport-cri/internal/document/result"
)

const serviceName = "dvad"

// validatePassportQuery is the structured query sent for every check. The
// identity fields travel as variables, never interpolated into the query.
const validatePassportQuery = `query ValidatePassport($input: ValidatePassportInput!) {
  validatePassport(input: $input) {
    passportFound
    validationResult
  }
}`

// queryInput carries the identity fields as GraphQL variables.
type queryInput struct {
	PassportNumber string   `json:"passportNumber"`
	Surname        string   `json:"surname"`
	Forenames      []string `json:"forenames"`
	DateOfBirth    string   `json:"dateOfBirth"`
	ExpiryDate     string   `json:"expiryDate"`
}

type queryVariables struct {
	Input queryInput `json:"input"`
}

// Service performs document checks against the DVAD GraphQL endpoint.
type Service struct {
	tokens      *TokenCache
	graphql     *GraphQLClient
	synthesizer *result.Synthesizer
	probe       metrics.Probe
	log         *slog.Logger
}

func New(tokens *TokenCache, graphql *GraphQLClient, synthesizer *result.Synthesizer, probe metrics.Probe, log *slog.Logger) *Service {
	return &Service{
		tokens:      tokens,
		graphql:     graphql,
		synthesizer: synthesizer,
		probe:       probe,
		log:         log,
	}
}

func (s *Service) Name() string { return serviceName }

// PerformCheck obtains a bearer token, posts the validation query, and parses
// the reply into the canonical result. The generated request id becomes the
// transaction id for the attempt.
func (s *Service) PerformCheck(ctx context.Context, form models.PassportFormData) (*models.ThirdPartyAPIResult, error) {
	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	variables := queryVariables{Input: queryInput{
		PassportNumber: form.PassportNumber,
		Surname:        form.Surname,
		Forenames:      form.Forenames,
		DateOfBirth:    form.DateOfBirth,
		ExpiryDate:     form.ExpiryDate,
	}}

	body, err := s.graphql.PerformQuery(ctx, requestID, token, validatePassportQuery, variables)
	if err != nil {
		return nil, err
	}

	apiResult, err := s.synthesizer.ParseReply(models.SourceDVAD, []byte(body))
	switch {
	case errors.Is(err, result.ErrProviderReported):
		s.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.ResponseTypeError))
		s.log.Error("graphql reply carried provider errors", "request_id", requestID)
		return nil, provider.NewError(provider.StageProviderReported, serviceName, "provider reported an error response", err)
	case err != nil:
		s.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.ResponseTypeInvalid))
		return nil, provider.NewError(provider.StageResponseUnwrap, serviceName, "failed to parse graphql reply", err)
	}
	s.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.ResponseTypeValid))

	apiResult.TransactionID = requestID
	return apiResult, nil
}

var _ provider.API = (*Service)(nil)
