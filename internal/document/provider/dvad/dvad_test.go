package dvad

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport-cri/internal/document/metrics"
	metricmocks "passport-cri/internal/document/metrics/mocks"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	providermocks "passport-cri/internal/document/provider/mocks"
	"passport-cri/internal/document/result"
)

var testForm = models.PassportFormData{
	Forenames:      []string{"Mary"},
	Surname:        "Watson",
	DateOfBirth:    "1932-02-25",
	PassportNumber: "824159121",
	ExpiryDate:     "2030-01-01",
	IssuingCountry: "GBR",
}

type DVADServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockDoer  *providermocks.MockHTTPDoer
	mockProbe *metricmocks.MockProbe
	service   *Service

	sentRequestID string
}

func (s *DVADServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockDoer = providermocks.NewMockHTTPDoer(s.ctrl)
	s.mockProbe = metricmocks.NewMockProbe(s.ctrl)
	s.sentRequestID = ""

	logger := discardLogger()
	tokens := NewTokenCache("https://dvad.test/token", "client-1", "secret-1",
		30*time.Second, s.mockDoer, s.mockProbe, logger)
	graphql := NewGraphQLClient("https://dvad.test/graphql", "key-1", "passport-cri-test",
		s.mockDoer, s.mockProbe, logger)
	s.service = New(tokens, graphql, result.NewSynthesizer(nil), s.mockProbe, logger)
}

func (s *DVADServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDVADServiceSuite(t *testing.T) {
	suite.Run(t, new(DVADServiceSuite))
}

// expectTokenFetch scripts the client-credentials exchange and its metrics.
func (s *DVADServiceSuite) expectTokenFetch() {
	s.mockDoer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(s.T(), "https://dvad.test/token", req.URL.String())
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(tokenJSON)),
		}, nil
	})
	gomock.InOrder(
		s.mockProbe.EXPECT().CounterMetric(metrics.Name("dvad_token", metrics.RequestCreated)),
		s.mockProbe.EXPECT().CounterMetric(metrics.Name("dvad_token", metrics.RequestSendOK)),
		s.mockProbe.EXPECT().CounterMetric(metrics.Name("dvad_token", metrics.ResponseTypeExpectedStatus)),
		s.mockProbe.EXPECT().CounterMetric(metrics.Name("dvad_token", metrics.ResponseTypeValid)),
	)
}

// expectQuery scripts the GraphQL exchange and captures the request id.
func (s *DVADServiceSuite) expectQuery(replyBody string, metricSuffixes ...string) {
	s.mockDoer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(s.T(), "https://dvad.test/graphql", req.URL.String())
		s.sentRequestID = req.Header.Get("X-REQUEST-ID")

		body, err := io.ReadAll(req.Body)
		require.NoError(s.T(), err)
		var parsed struct {
			Variables queryVariables `json:"variables"`
		}
		require.NoError(s.T(), json.Unmarshal(body, &parsed))
		assert.Equal(s.T(), testForm.PassportNumber, parsed.Variables.Input.PassportNumber)

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(replyBody)),
		}, nil
	})
	calls := make([]any, 0, len(metricSuffixes))
	for _, suffix := range metricSuffixes {
		calls = append(calls, s.mockProbe.EXPECT().CounterMetric(metrics.Name("dvad_graphql", suffix)))
	}
	gomock.InOrder(calls...)
}

func (s *DVADServiceSuite) TestPerformCheck_ValidPassport() {
	s.expectTokenFetch()
	s.expectQuery(`{"data":{"validatePassport":{"passportFound":true,"validationResult":true}}}`,
		metrics.RequestCreated, metrics.RequestSendOK,
		metrics.ResponseTypeExpectedStatus, metrics.ResponseTypeValid)

	apiResult, err := s.service.PerformCheck(context.Background(), testForm)
	require.NoError(s.T(), err)
	assert.True(s.T(), apiResult.Valid)
	assert.Equal(s.T(), models.SourceDVAD, apiResult.Source)
	assert.NotEmpty(s.T(), s.sentRequestID)
	assert.Equal(s.T(), s.sentRequestID, apiResult.TransactionID,
		"the generated request id becomes the transaction id")
}

func (s *DVADServiceSuite) TestPerformCheck_PassportNotFound() {
	s.expectTokenFetch()
	s.expectQuery(`{"data":{"validatePassport":{"passportFound":false,"validationResult":false}}}`,
		metrics.RequestCreated, metrics.RequestSendOK,
		metrics.ResponseTypeExpectedStatus, metrics.ResponseTypeValid)

	apiResult, err := s.service.PerformCheck(context.Background(), testForm)
	require.NoError(s.T(), err)
	assert.False(s.T(), apiResult.Valid)
}

func (s *DVADServiceSuite) TestPerformCheck_RetrySentinel() {
	s.expectTokenFetch()
	s.expectQuery(`{"result":"retry"}`,
		metrics.RequestCreated, metrics.RequestSendOK,
		metrics.ResponseTypeExpectedStatus, metrics.ResponseTypeValid)

	apiResult, err := s.service.PerformCheck(context.Background(), testForm)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.ErrorStatusRetry, apiResult.ErrorStatus)
}

func (s *DVADServiceSuite) TestPerformCheck_ProviderErrors() {
	s.expectTokenFetch()
	s.expectQuery(`{"errors":[{"message":"internal"}]}`,
		metrics.RequestCreated, metrics.RequestSendOK,
		metrics.ResponseTypeExpectedStatus, metrics.ResponseTypeError)

	_, err := s.service.PerformCheck(context.Background(), testForm)
	require.Error(s.T(), err)
	assert.True(s.T(), provider.IsStage(err, provider.StageProviderReported))
}

func (s *DVADServiceSuite) TestPerformCheck_UnparseableReply() {
	s.expectTokenFetch()
	s.expectQuery(`{"data":{}}`,
		metrics.RequestCreated, metrics.RequestSendOK,
		metrics.ResponseTypeExpectedStatus, metrics.ResponseTypeInvalid)

	_, err := s.service.PerformCheck(context.Background(), testForm)
	require.Error(s.T(), err)
	assert.True(s.T(), provider.IsStage(err, provider.StageResponseUnwrap))
	assert.ErrorIs(s.T(), err, result.ErrUnparseableReply)
}
