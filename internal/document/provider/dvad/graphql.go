package dvad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"passport-cri/internal/document/metrics"
	"passport-cri/internal/document/provider"
)

const graphqlMetricPrefix = "dvad_graphql"

// Request header keys used by the provider's GraphQL endpoint.
const (
	headerRequestID = "X-REQUEST-ID"
	headerAPIKey    = "X-API-Key"
)

// graphQLRequest is the single JSON body posted to the GraphQL endpoint.
type graphQLRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

// GraphQLClient posts structured queries to the provider's GraphQL endpoint
// and returns the raw reply body for the synthesizer to interpret.
type GraphQLClient struct {
	endpoint  string
	apiKey    string
	userAgent string

	client provider.HTTPDoer
	probe  metrics.Probe
	log    *slog.Logger
}

func NewGraphQLClient(endpoint, apiKey, userAgent string, client provider.HTTPDoer, probe metrics.Probe, log *slog.Logger) *GraphQLClient {
	return &GraphQLClient{
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
		client:    client,
		probe:     probe,
		log:       log,
	}
}

// PerformQuery sends one GraphQL query authenticated with the supplied
// bearer token. A non-200 status is terminal for the attempt; retry policy,
// if any, belongs to the caller. The response body is released on every exit
// path.
func (c *GraphQLClient) PerformQuery(ctx context.Context, requestID string, token AccessTokenResponse, query string, variables any) (string, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		// The variables carry identity fields, so the marshalling error is
		// not attached to the returned message.
		c.log.Error("failed to marshal graphql request body")
		return "", provider.NewError(provider.StagePayloadPreparation, serviceName, "failed to prepare graphql request payload", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", provider.NewError(provider.StagePayloadPreparation, serviceName, "failed to create graphql request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", fmt.Sprintf("%s %s", token.TokenType, token.AccessToken))
	c.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.RequestCreated))

	c.log.Info("submitting graphql request to third party", "request_id", requestID)
	resp, err := c.client.Do(req)
	if err != nil {
		c.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.RequestSendError))
		return "", provider.NewError(provider.StageDispatch, serviceName, "failed to execute graphql request", err)
	}
	defer resp.Body.Close()
	c.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.RequestSendOK))

	replyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NewError(provider.StageDispatch, serviceName, "failed to read graphql response", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.ResponseTypeUnexpectedStatus))
		c.log.Error("graphql endpoint replied with unexpected http status", "status", resp.StatusCode, "request_id", requestID)
		c.log.Debug("unexpected status reply body", "body", string(replyBytes))
		return "", provider.NewError(provider.StageUnexpectedStatus, serviceName, "graphql endpoint returned unexpected http status", nil)
	}
	c.probe.CounterMetric(metrics.Name(graphqlMetricPrefix, metrics.ResponseTypeExpectedStatus))

	return string(replyBytes), nil
}
