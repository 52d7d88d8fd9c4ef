// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus ballot API.

Handlers decode requests, call into the voting and registration flows and
map their errors onto status codes:

	401  missing or rejected token
	400  malformed body, already voted, invalid registration or election
	403  not eligible, not an administrator, token/user mismatch
	404  caller has no voter record
	409  vote already in progress, voter already registered
	500  ledger failure (code ledger_rejected or ledger_unavailable) or store error
*/
package handlers
