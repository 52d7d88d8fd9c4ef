// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/voting"
)

type AdminHandler struct {
	admin *voting.Administration
}

func NewAdminHandler(admin *voting.Administration) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// PendingClaims handles GET /admin/pending-claims?olderThan=10m
func (h *AdminHandler) PendingClaims(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	var olderThan time.Duration
	if s := r.URL.Query().Get("olderThan"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "olderThan must be a non-negative duration")
			return
		}
		olderThan = d
	}

	claims, err := h.admin.PendingClaims(r.Context(), token, olderThan)
	if err != nil {
		writeError(w, r, "pending claims", err)
		return
	}

	resp := models.PendingClaimsResponse{Claims: make([]models.PendingClaim, len(claims))}
	for i, c := range claims {
		resp.Claims[i] = models.PendingClaim{
			VoterID:    c.VoterID,
			ElectionID: c.ElectionID,
			ClaimedAt:  c.ClaimedAt,
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
