// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/registration"
	"github.com/danielhkuo/campus-ballot/voting"
)

type VoterHandler struct {
	registration *registration.Service
	coordinator  *voting.Coordinator
}

func NewVoterHandler(reg *registration.Service, coordinator *voting.Coordinator) *VoterHandler {
	return &VoterHandler{registration: reg, coordinator: coordinator}
}

// Register handles POST /voters/register
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voter, err := h.registration.Register(r.Context(), token, registration.Request{
		UserID:     req.UserID,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		Section:    req.Section,
		Year:       req.Year,
		Branch:     req.Branch,
		FullName:   req.FullName,
	})
	if err != nil {
		writeError(w, r, "register voter", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RegisterVoterResponse{
		Success: true,
		UID:     voter.ID,
	})
}

// GetMe handles GET /voters/me
func (h *VoterHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	voter, err := h.coordinator.History(r.Context(), token)
	if err != nil {
		writeError(w, r, "vote history", err)
		return
	}

	votes := make(map[string]string, len(voter.VotesCast))
	for electionID, txHash := range voter.VotesCast {
		votes[strconv.FormatUint(electionID, 10)] = txHash
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteHistoryResponse{
		VotesCast: votes,
		Profile: models.VoterProfile{
			UID:          voter.ID,
			Email:        voter.Email,
			RollNumber:   voter.RollNumber,
			FullName:     voter.FullName,
			Branch:       voter.Branch,
			AcademicYear: voter.AcademicYear,
			Section:      voter.Section,
			CreatedAt:    voter.CreatedAt,
		},
	})
}
