package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-market-nosql/internal/application/auth"
	"github.com/go-market-nosql/internal/transport/http/middleware"
)

// EmailConfirmHandler handles the email confirmation flow. A verified email
// is required before a user can publish listings.
type EmailConfirmHandler struct {
	svc auth.Service
}

func NewEmailConfirmHandler(svc auth.Service) *EmailConfirmHandler {
	return &EmailConfirmHandler{svc: svc}
}

// Action dispatches on the "action" field: "request" emails a confirmation
// token, "validate" consumes one.
func (h *EmailConfirmHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Action string `json:"action"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "request":
		if err := h.svc.RequestEmailConfirmation(r.Context(), claims.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "confirmation email sent"})
	case "validate":
		if req.Token == "" {
			writeError(w, http.StatusBadRequest, "token required")
			return
		}
		if err := h.svc.ValidateEmailToken(r.Context(), claims.UserID, req.Token); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
