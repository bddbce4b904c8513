package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Issuer

import (
	"bytes"
	"context"
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

	"passport-cri/internal/audit"
	auditmocks "passport-cri/internal/audit/mocks"
	"passport-cri/internal/credential"
	"passport-cri/internal/credential/handler/mocks"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/store"
)

type HandlerSuite struct {
	suite.Suite
	router     http.Handler
	ctrl       *gomock.Controller
	mockIssuer *mocks.MockIssuer
	mockEvents *auditmocks.MockPublisher
	results    *store.MemoryStore
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockIssuer = mocks.NewMockIssuer(s.ctrl)
	s.mockEvents = auditmocks.NewMockPublisher(s.ctrl)
	s.results = store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.mockIssuer, s.results, s.mockEvents, logger)

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

func (s *HandlerSuite) postIssue(body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/issue-credential", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) issueBody() []byte {
	body, err := json.Marshal(IssueCredentialRequest{
		SessionID: "session-1",
		Subject:   "subject-1",
		Identity: credential.IdentityFromForm(models.PassportFormData{
			Forenames:   []string{"Mary"},
			Surname:     "Watson",
			DateOfBirth: "1932-02-25",
		}),
	})
	require.NoError(s.T(), err)
	return body
}

func (s *HandlerSuite) storedResult() models.DocumentCheckResult {
	checkResult := models.DocumentCheckResult{
		Verified:       true,
		StrengthScore:  4,
		ValidityScore:  2,
		TransactionID:  "txn-1",
		Source:         models.SourceDVAD,
		PassportNumber: "824159121",
		ExpiryDate:     "2030-01-01",
	}
	require.NoError(s.T(), s.results.Put(context.Background(), "session-1", checkResult))
	return checkResult
}

func (s *HandlerSuite) TestIssueCredential_Success() {
	checkResult := s.storedResult()
	s.mockIssuer.EXPECT().
		Issue(gomock.Any(), "subject-1", checkResult, gomock.Any()).
		Return("signed.jwt.credential", nil)
	s.mockEvents.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			assert.Equal(s.T(), audit.ActionCredentialIssued, event.Action)
			assert.Equal(s.T(), "session-1", event.SessionID)
			return nil
		})

	rec := s.postIssue(s.issueBody())
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var resp IssueCredentialResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "signed.jwt.credential", resp.Credential)
}

func (s *HandlerSuite) TestIssueCredential_UnknownSession() {
	rec := s.postIssue(s.issueBody())
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestIssueCredential_SigningFailure() {
	s.storedResult()
	s.mockIssuer.EXPECT().
		Issue(gomock.Any(), "subject-1", gomock.Any(), gomock.Any()).
		Return("", &credential.SigningError{Err: errors.New("hsm unavailable")})

	rec := s.postIssue(s.issueBody())
	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "signing_failed", resp["reason_code"])
}

func (s *HandlerSuite) TestIssueCredential_InvalidJSON() {
	rec := s.postIssue([]byte("not valid json"))
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestIssueCredential_MissingSubject() {
	body, err := json.Marshal(IssueCredentialRequest{SessionID: "session-1"})
	require.NoError(s.T(), err)

	rec := s.postIssue(body)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
