package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passport-cri/internal/audit"
	"passport-cri/internal/credential"
	"passport-cri/internal/document/models"
	"passport-cri/internal/document/store"
	"passport-cri/internal/platform/httputil"
)

// Issuer is the credential issuance operation exposed to this handler.
type Issuer interface {
	Issue(ctx context.Context, subject string, checkResult models.DocumentCheckResult, identity credential.Identity) (string, error)
}

type Handler struct {
	issuer  Issuer
	results store.Store
	events  audit.Publisher
	logger  *slog.Logger
}

func New(issuer Issuer, results store.Store, events audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, results: results, events: events, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/issue-credential", h.HandleIssueCredential)
}

// HandleIssueCredential reads the persisted check result for the session and
// returns the signed credential. The subject identifier and person identity
// come from the calling orchestrator.
func (h *Handler) HandleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[IssueCredentialRequest](r)
	if err != nil || req.SessionID == "" || req.Subject == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	checkResult, err := h.results.Get(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "session_not_found"})
			return
		}
		h.logger.ErrorContext(ctx, "failed to load check result", "session_id", req.SessionID, "error", err)
		httputil.WriteInternalError(w, "result_read_failed")
		return
	}

	signed, err := h.issuer.Issue(ctx, req.Subject, *checkResult, req.Identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issuance failed", "session_id", req.SessionID, "error", err)
		var signingErr *credential.SigningError
		if errors.As(err, &signingErr) {
			httputil.WriteInternalError(w, "signing_failed")
			return
		}
		httputil.WriteInternalError(w, "issuance_failed")
		return
	}

	if err := h.events.Emit(ctx, audit.Event{
		SessionID: req.SessionID,
		Action:    audit.ActionCredentialIssued,
		Extension: map[string]any{
			"verified":          checkResult.Verified,
			"strength_score":    checkResult.StrengthScore,
			"validity_score":    checkResult.ValidityScore,
			"contra_indicators": checkResult.ContraIndicators,
			"txn":               checkResult.TransactionID,
		},
	}); err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}

	httputil.WriteJSON(w, http.StatusOK, IssueCredentialResponse{Credential: signed})
}

type IssueCredentialRequest struct {
	SessionID string              `json:"session_id"`
	Subject   string              `json:"subject"`
	Identity  credential.Identity `json:"identity"`
}

type IssueCredentialResponse struct {
	Credential string `json:"credential"`
}
