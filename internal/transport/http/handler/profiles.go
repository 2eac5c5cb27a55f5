package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-market-nosql/internal/application/listing"
	"github.com/go-market-nosql/internal/application/profile"
	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/transport/http/middleware"
)

// ProfileHandler handles the owner's public profile and the public seller
// pages resolved by handle.
type ProfileHandler struct {
	svc      profile.Service
	listings listing.Service
}

func NewProfileHandler(svc profile.Service, listings listing.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc, listings: listings}
}

func (h *ProfileHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update edits the caller's profile. Changing seller_slug triggers the full
// handle reassignment, including the propagation sweep over the caller's
// listings, before the response is written.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.Update(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SellerPage is the public storefront: GET /sellers/{slug}.
func (h *ProfileHandler) SellerPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, err := h.svc.GetBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, cursor := parsePage(r)
	items, next, err := h.listings.ListByOwner(r.Context(), p.UserID, limit, cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SellerPageEnvelope{
		Profile:    p,
		Listings:   items,
		NextCursor: next,
	})
}
