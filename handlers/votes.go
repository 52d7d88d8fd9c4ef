// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/voting"
)

type VoteHandler struct {
	coordinator *voting.Coordinator
}

func NewVoteHandler(coordinator *voting.Coordinator) *VoteHandler {
	return &VoteHandler{coordinator: coordinator}
}

// SubmitVote handles POST /votes
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ElectionID == nil || req.CandidateID == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "electionId and candidateId are required")
		return
	}

	receipt, err := h.coordinator.SubmitVote(r.Context(), token, *req.ElectionID, *req.CandidateID)
	if err != nil {
		writeError(w, r, "submit vote", err)
		return
	}

	if !receipt.Persisted {
		slog.Warn("vote accepted without stored receipt",
			"request_id", r.Header.Get(middleware.RequestIDHeader),
			"election_id", receipt.ElectionID,
			"tx", receipt.TxHash,
		)
	}

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Success:         true,
		TransactionHash: receipt.TxHash,
	})
}
