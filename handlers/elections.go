// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/voting"
)

type ElectionHandler struct {
	lister *voting.Lister
	admin  *voting.Administration
}

func NewElectionHandler(lister *voting.Lister, admin *voting.Administration) *ElectionHandler {
	return &ElectionHandler{lister: lister, admin: admin}
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	elections, err := h.lister.ListElections(r.Context(), token)
	if err != nil {
		writeError(w, r, "list elections", err)
		return
	}

	views := make([]models.ElectionView, 0, len(elections))
	for _, e := range elections {
		views = append(views, electionView(e))
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListElectionsResponse{
		AllElections: views,
	})
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Eligible pairs are positional: targetYears[i] goes with targetSections[i].
	if len(req.TargetYears) != len(req.TargetSections) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "targetYears and targetSections must have the same length")
		return
	}
	pairs := make([]ledger.Pair, len(req.TargetYears))
	for i := range req.TargetYears {
		pairs[i] = ledger.Pair{Year: req.TargetYears[i], Section: req.TargetSections[i]}
	}

	// Bounded here so the conversion to time.Duration cannot overflow
	if req.DurationHours <= 0 || req.DurationHours > voting.MaxElectionDuration.Hours() {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("durationHours must be greater than 0 and at most %.0f", voting.MaxElectionDuration.Hours()))
		return
	}

	spec := ledger.ElectionSpec{
		Title:      req.Title,
		Candidates: req.Candidates,
		Duration:   time.Duration(req.DurationHours * float64(time.Hour)),
		Pairs:      pairs,
	}

	created, err := h.admin.CreateElection(r.Context(), token, spec)
	if err != nil {
		writeError(w, r, "create election", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CreateElectionResponse{
		Success:         true,
		TransactionHash: created.TxHash,
		ElectionID:      created.ElectionID,
		Message:         fmt.Sprintf("Election %q created", spec.Title),
	})
}

func electionView(e voting.Election) models.ElectionView {
	candidates := make([]models.CandidateView, len(e.Candidates))
	for i, c := range e.Candidates {
		candidates[i] = models.CandidateView{ID: c.ID, Name: c.Name, Votes: c.Votes}
	}
	return models.ElectionView{
		ID:             e.ID,
		Title:          e.Title,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		TargetYears:    e.Years(),
		TargetSections: e.Sections(),
		Status:         e.Status,
		Candidates:     candidates,
		TotalVotes:     e.TotalVotes,
	}
}
