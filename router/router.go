// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/handlers"
	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/registration"
	"github.com/danielhkuo/campus-ballot/store"
	"github.com/danielhkuo/campus-ballot/voting"
)

// Ledger is a ledger that can also create elections. Both *ledger.Contract
// and *ledger.Memory satisfy it.
type Ledger interface {
	ledger.Ledger
	ledger.Admin
}

func NewRouter(db *sql.DB, cfg cliparse.Config, verifier auth.Verifier, l Ledger) *http.ServeMux {
	mux := http.NewServeMux()

	// Wire the flows
	voters := store.New(db)
	resolver := voting.NewResolver(verifier, voters)
	coordinator := voting.NewCoordinator(resolver, voters, l)
	lister := voting.NewLister(resolver, l)
	lister.SetConcurrency(cfg.ListConcurrency)
	administration := voting.NewAdministration(resolver, voters, l)

	// Initialize handlers
	voteHandler := handlers.NewVoteHandler(coordinator)
	voterHandler := handlers.NewVoterHandler(registration.NewService(resolver, voters), coordinator)
	electionHandler := handlers.NewElectionHandler(lister, administration)
	adminHandler := handlers.NewAdminHandler(administration)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting
	mux.HandleFunc("POST /votes", middleware.WithLogging(voteHandler.SubmitVote))

	// Elections (creation is administrator only)
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))

	// Voter registration and history
	mux.HandleFunc("POST /voters/register", middleware.WithLogging(voterHandler.Register))
	mux.HandleFunc("GET /voters/me", middleware.WithLogging(voterHandler.GetMe))

	// Reconciliation
	mux.HandleFunc("GET /admin/pending-claims", middleware.WithLogging(adminHandler.PendingClaims))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("campus-ballot API v1"))
	})

	return mux
}
