package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"passport-cri/internal/document/models"
	"passport-cri/internal/document/provider"
	"passport-cri/internal/document/result"
	"passport-cri/internal/document/service"
	"passport-cri/internal/platform/httputil"
)

// Service is the document-check operation exposed to this handler.
type Service interface {
	CheckPassport(ctx context.Context, sessionID string, form models.PassportFormData) (*service.CheckOutcome, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleInitialiseSession)
	r.Post("/check-passport", h.HandleCheckPassport)
}

// HandleInitialiseSession allocates a session key for a verification flow.
func (h *Handler) HandleInitialiseSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusCreated, SessionResponse{
		SessionID: uuid.NewString(),
	})
}

// HandleCheckPassport runs one verification attempt. A retry outcome is a
// normal 200 telling the user to resubmit corrected data; every pipeline
// error is a single internal-server-class failure with a reason code.
func (h *Handler) HandleCheckPassport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[CheckPassportRequest](r)
	if err != nil || req.SessionID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	outcome, err := h.service.CheckPassport(ctx, req.SessionID, req.PassportFormData)
	if err != nil {
		h.logger.ErrorContext(ctx, "document check failed", "session_id", req.SessionID, "error", err)
		httputil.WriteInternalError(w, reasonCode(err))
		return
	}

	if outcome.Retry {
		httputil.WriteJSON(w, http.StatusOK, CheckPassportResponse{Result: "retry"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CheckPassportResponse{
		Result:   "completed",
		Verified: outcome.Result.Verified,
	})
}

// reasonCode maps pipeline failures onto stable internal reason codes.
func reasonCode(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return string(pe.Stage)
	}
	if errors.Is(err, result.ErrUnparseableReply) {
		return "unparseable_reply"
	}
	return "internal_error"
}
