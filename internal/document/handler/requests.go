package handler

import "passport-cri/internal/document/models"

type CheckPassportRequest struct {
	SessionID string `json:"session_id"`
	models.PassportFormData
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

type CheckPassportResponse struct {
	Result   string `json:"result"`
	Verified bool   `json:"verified,omitempty"`
}
