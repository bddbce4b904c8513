package dvad

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"passport-cri/internal/document/metrics"
	"passport-cri/internal/document/provider"
)

const tokenMetricPrefix = "dvad_token"

// AccessTokenResponse is the provider token endpoint's client-credentials
// grant response. It is owned exclusively by the TokenCache.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenCache obtains and reuses a bearer token until near expiry. Reads are
// lock-cheap; a refresh has a single winner via singleflight and other
// callers wait for and reuse its result, so a cold cache under N concurrent
// callers still produces exactly one upstream fetch.
type TokenCache struct {
	endpoint     string
	clientID     string
	clientSecret string
	safetyMargin time.Duration

	client provider.HTTPDoer
	probe  metrics.Probe
	log    *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	cached *AccessTokenResponse
	expiry time.Time

	group singleflight.Group
}

func NewTokenCache(endpoint, clientID, clientSecret string, safetyMargin time.Duration, client provider.HTTPDoer, probe metrics.Probe, log *slog.Logger) *TokenCache {
	return &TokenCache{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		safetyMargin: safetyMargin,
		client:       client,
		probe:        probe,
		log:          log,
		now:          time.Now,
	}
}

// GetToken returns the cached token while it is comfortably inside its
// lifetime, otherwise fetches a replacement and swaps it in atomically.
func (t *TokenCache) GetToken(ctx context.Context) (AccessTokenResponse, error) {
	if tok, ok := t.cachedToken(); ok {
		return tok, nil
	}

	v, err, _ := t.group.Do("token", func() (any, error) {
		// A waiter that lost the race may arrive after the winner has
		// already refreshed; reuse rather than refetch.
		if tok, ok := t.cachedToken(); ok {
			return tok, nil
		}
		return t.refresh(ctx)
	})
	if err != nil {
		return AccessTokenResponse{}, err
	}
	return v.(AccessTokenResponse), nil
}

func (t *TokenCache) cachedToken() (AccessTokenResponse, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.cached != nil && t.now().Before(t.expiry.Add(-t.safetyMargin)) {
		return *t.cached, true
	}
	return AccessTokenResponse{}, false
}

func (t *TokenCache) refresh(ctx context.Context) (AccessTokenResponse, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessTokenResponse{}, provider.NewError(provider.StagePayloadPreparation, serviceName, "failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.RequestCreated))

	t.log.Info("requesting access token from third party")
	resp, err := t.client.Do(req)
	if err != nil {
		t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.RequestSendError))
		return AccessTokenResponse{}, provider.NewError(provider.StageDispatch, serviceName, "failed to execute token request", err)
	}
	defer resp.Body.Close()
	t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.RequestSendOK))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessTokenResponse{}, provider.NewError(provider.StageDispatch, serviceName, "failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.ResponseTypeUnexpectedStatus))
		t.log.Error("token endpoint replied with unexpected http status", "status", resp.StatusCode)
		return AccessTokenResponse{}, provider.NewError(provider.StageUnexpectedStatus, serviceName, "token endpoint returned unexpected http status", nil)
	}
	t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.ResponseTypeExpectedStatus))

	var tok AccessTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.ResponseTypeInvalid))
		return AccessTokenResponse{}, provider.NewError(provider.StageResponseUnwrap, serviceName, "failed to parse token response", err)
	}
	if tok.AccessToken == "" || tok.TokenType == "" || tok.ExpiresIn <= 0 {
		t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.ResponseTypeInvalid))
		return AccessTokenResponse{}, provider.NewError(provider.StageResponseUnwrap, serviceName, "token response missing required fields", nil)
	}
	t.probe.CounterMetric(metrics.Name(tokenMetricPrefix, metrics.ResponseTypeValid))

	t.mu.Lock()
	t.cached = &tok
	t.expiry = t.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	t.mu.Unlock()

	return tok, nil
}
