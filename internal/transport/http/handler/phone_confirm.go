package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-market-nosql/internal/application/auth"
	"github.com/go-market-nosql/internal/transport/http/middleware"
)

// PhoneConfirmHandler handles phone verification by SMS code.
type PhoneConfirmHandler struct {
	svc auth.Service
}

func NewPhoneConfirmHandler(svc auth.Service) *PhoneConfirmHandler {
	return &PhoneConfirmHandler{svc: svc}
}

// Action dispatches on the "action" field: "request" texts a code to the
// account's normalized phone number, "validate" consumes one.
func (h *PhoneConfirmHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Action string `json:"action"`
		OTP    string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "request":
		if err := h.svc.RequestPhoneConfirmation(r.Context(), claims.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
	case "validate":
		if req.OTP == "" {
			writeError(w, http.StatusBadRequest, "otp required")
			return
		}
		if err := h.svc.ValidatePhoneOTP(r.Context(), claims.UserID, req.OTP); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "phone verified"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
