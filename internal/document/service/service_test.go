package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport-cri/internal/audit"
	auditmocks "passport-cri/internal/audit/mocks"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	providermocks "passport-cri/internal/document/provider/mocks"
	"passport-cri/internal/document/result"
	"passport-cri/internal/document/store"
	"passport-cri/internal/document/tracer"
)

var testForm = models.PassportFormData{
	Forenames:      []string{"Mary"},
	Surname:        "Watson",
	DateOfBirth:    "1932-02-25",
	PassportNumber: "824159121",
	ExpiryDate:     "2030-01-01",
	IssuingCountry: "GBR",
}

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockAPI    *providermocks.MockAPI
	mockEvents *auditmocks.MockPublisher
	results    *store.MemoryStore
	service    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAPI = providermocks.NewMockAPI(s.ctrl)
	s.mockEvents = auditmocks.NewMockPublisher(s.ctrl)
	s.results = store.NewMemoryStore()

	s.mockAPI.EXPECT().Name().Return("dvad").AnyTimes()

	s.service = New(
		s.mockAPI,
		result.NewSynthesizer(nil),
		s.results,
		s.mockEvents,
		tracer.NewNoop(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCheckPassport_MatchPersistsAndAudits() {
	s.mockAPI.EXPECT().PerformCheck(gomock.Any(), testForm).Return(&models.ThirdPartyAPIResult{
		Valid:         true,
		TransactionID: "txn-1",
		Source:        models.SourceDVAD,
	}, nil)
	s.mockEvents.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			assert.Equal(s.T(), audit.ActionCheckCompleted, event.Action)
			assert.Equal(s.T(), "session-1", event.SessionID)
			assert.Equal(s.T(), true, event.Extension["verified"])
			return nil
		})

	outcome, err := s.service.CheckPassport(context.Background(), "session-1", testForm)
	require.NoError(s.T(), err)
	require.False(s.T(), outcome.Retry)
	assert.True(s.T(), outcome.Result.Verified)

	persisted, err := s.results.Get(context.Background(), "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), *outcome.Result, *persisted)
}

func (s *ServiceSuite) TestCheckPassport_MismatchPersistsContraIndicators() {
	s.mockAPI.EXPECT().PerformCheck(gomock.Any(), testForm).Return(&models.ThirdPartyAPIResult{
		Valid:         false,
		TransactionID: "txn-2",
		Source:        models.SourceDVAD,
	}, nil)
	s.mockEvents.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := s.service.CheckPassport(context.Background(), "session-1", testForm)
	require.NoError(s.T(), err)
	assert.False(s.T(), outcome.Result.Verified)
	assert.Equal(s.T(), []string{result.ContraIndicatorDataMismatch}, outcome.Result.ContraIndicators)
}

func (s *ServiceSuite) TestCheckPassport_RetryPersistsNothing() {
	s.mockAPI.EXPECT().PerformCheck(gomock.Any(), testForm).Return(&models.ThirdPartyAPIResult{
		Source:      models.SourceDVAD,
		ErrorStatus: models.ErrorStatusRetry,
	}, nil)
	s.mockEvents.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			assert.Equal(s.T(), audit.ActionCheckRetryAsked, event.Action)
			return nil
		})

	outcome, err := s.service.CheckPassport(context.Background(), "session-1", testForm)
	require.NoError(s.T(), err)
	assert.True(s.T(), outcome.Retry)
	assert.Nil(s.T(), outcome.Result)

	_, err = s.results.Get(context.Background(), "session-1")
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

func (s *ServiceSuite) TestCheckPassport_ProviderErrorPersistsNothing() {
	providerErr := provider.NewError(provider.StageDispatch, "dvad", "failed to execute request",
		errors.New("connection refused"))
	s.mockAPI.EXPECT().PerformCheck(gomock.Any(), testForm).Return(nil, providerErr)

	_, err := s.service.CheckPassport(context.Background(), "session-1", testForm)
	require.Error(s.T(), err)
	assert.True(s.T(), provider.IsStage(err, provider.StageDispatch))

	_, err = s.results.Get(context.Background(), "session-1")
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

func (s *ServiceSuite) TestCheckPassport_InvalidFormNeverReachesProvider() {
	form := testForm
	form.PassportNumber = ""

	_, err := s.service.CheckPassport(context.Background(), "session-1", form)
	assert.Error(s.T(), err)
}

func (s *ServiceSuite) TestCheckPassport_AuditFailureDoesNotFailCheck() {
	s.mockAPI.EXPECT().PerformCheck(gomock.Any(), testForm).Return(&models.ThirdPartyAPIResult{
		Valid:  true,
		Source: models.SourceDVAD,
	}, nil)
	s.mockEvents.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit sink down"))

	outcome, err := s.service.CheckPassport(context.Background(), "session-1", testForm)
	require.NoError(s.T(), err)
	assert.True(s.T(), outcome.Result.Verified)
}
