package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport-cri/internal/document/handler/mocks"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	"passport-cri/internal/document/service"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.mockService, logger)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) postCheck(body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/check-passport", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func checkRequestBody(s *HandlerSuite) []byte {
	body, err := json.Marshal(CheckPassportRequest{
		SessionID: "session-1",
		PassportFormData: models.PassportFormData{
			Forenames:      []string{"Mary"},
			Surname:        "Watson",
			DateOfBirth:    "1932-02-25",
			PassportNumber: "824159121",
			ExpiryDate:     "2030-01-01",
		},
	})
	require.NoError(s.T(), err)
	return body
}

func (s *HandlerSuite) TestInitialiseSession() {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(s.T(), resp.SessionID)
}

func (s *HandlerSuite) TestCheckPassport_Completed() {
	s.mockService.EXPECT().
		CheckPassport(gomock.Any(), "session-1", gomock.Any()).
		Return(&service.CheckOutcome{Result: &models.DocumentCheckResult{Verified: true}}, nil)

	rec := s.postCheck(checkRequestBody(s))
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var resp CheckPassportResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "completed", resp.Result)
	assert.True(s.T(), resp.Verified)
}

func (s *HandlerSuite) TestCheckPassport_Retry() {
	s.mockService.EXPECT().
		CheckPassport(gomock.Any(), "session-1", gomock.Any()).
		Return(&service.CheckOutcome{Retry: true}, nil)

	rec := s.postCheck(checkRequestBody(s))
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var resp CheckPassportResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "retry", resp.Result)
	assert.False(s.T(), resp.Verified)
}

func (s *HandlerSuite) TestCheckPassport_ProviderFailureMapsToReasonCode() {
	s.mockService.EXPECT().
		CheckPassport(gomock.Any(), "session-1", gomock.Any()).
		Return(nil, provider.NewError(provider.StageResponseUnwrap, "dcs", "failed to unwrap response", nil))

	rec := s.postCheck(checkRequestBody(s))
	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "server_error", resp["error"])
	assert.Equal(s.T(), "response_unwrap", resp["reason_code"])
}

func (s *HandlerSuite) TestCheckPassport_UnknownFailureMapsToInternalError() {
	s.mockService.EXPECT().
		CheckPassport(gomock.Any(), "session-1", gomock.Any()).
		Return(nil, errors.New("something else broke"))

	rec := s.postCheck(checkRequestBody(s))
	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "internal_error", resp["reason_code"])
}

func (s *HandlerSuite) TestCheckPassport_InvalidJSON() {
	rec := s.postCheck([]byte("not valid json"))
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCheckPassport_MissingSessionID() {
	body, err := json.Marshal(CheckPassportRequest{
		PassportFormData: models.PassportFormData{PassportNumber: "824159121"},
	})
	require.NoError(s.T(), err)

	rec := s.postCheck(body)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
