// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus ballot API.

	mux := router.NewRouter(db, cfg, verifier, ledger)

# Endpoints

	GET  /health                - Liveness
	POST /votes                 - Cast a vote
	GET  /elections             - Elections visible to the caller
	POST /elections             - Create an election (administrator)
	POST /voters/register       - Register the caller as a voter
	GET  /voters/me             - Profile and vote receipts
	GET  /admin/pending-claims  - Votes awaiting reconciliation (administrator)

Every endpoint except /health and / requires an Authorization bearer token.
*/
package router
