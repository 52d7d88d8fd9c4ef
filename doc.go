// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus ballot API server.

Students register with their roll number, year and section, then cast one
vote per election they are eligible for. Elections, candidates and tallies
live on an external ledger (an Ethereum contract); this service gates
submissions and keeps the per-voter receipts.

# Starting the Server

	DATABASE_URL=ballot.db SUPABASE_URL=... SUPABASE_SERVICE_ROLE_KEY=... go run .

Without RPC_URL the server uses an in-memory ledger. See package cliparse
for every setting.

# Architecture

  - handlers, router, middleware, models: HTTP surface
  - voting: vote coordination, election listing, administration
  - registration: roll number validation and sign-up
  - ledger: contract binding and in-memory ledger
  - store, db: voter record store
  - auth: token verification
  - cliparse: configuration
*/
package main
