// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import "errors"

// Failures detected before any ledger mutation. Ledger failures are
// reported as *ledger.Error.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrVoterNotFound    = errors.New("voter registration record not found")
	ErrAlreadyVoted     = errors.New("you have already voted in this election")
	ErrNotEligible      = errors.New("you are not eligible to vote in this election")
	ErrVoteInProgress   = errors.New("a vote for this election is already being recorded")
	ErrNotAdministrator = errors.New("administrator role required")
	ErrInvalidElection  = errors.New("invalid election")
)
