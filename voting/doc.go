// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements vote submission, election listing and election
administration on top of a ledger and the voter record store.

# Roles

Resolver authenticates a bearer token and assigns exactly one role. A caller
listed in the administrator table is an Administrator; otherwise a caller
with a voter record is a Voter; anyone else is Unregistered.

# Submitting a Vote

Coordinator.SubmitVote runs these gates in order and stops at the first
failure:

 1. authenticate the token (ErrUnauthenticated)
 2. load the voter record (ErrVoterNotFound)
 3. reject an election already in the voter's receipts (ErrAlreadyVoted)
 4. read the election's eligible pairs from the ledger (ErrNotEligible)
 5. claim the (voter, election) pair in the store (ErrAlreadyVoted, ErrVoteInProgress)
 6. record the vote on the ledger (*ledger.Error)
 7. store the receipt, retrying on failure

Nothing reaches the ledger unless gates 1 to 5 pass. A failed receipt
write after step 6 is logged as a persistence warning and the vote is
still reported as accepted; its claim stays pending so the pair cannot be
voted again, and Administration.PendingClaims lists it for reconciliation.

# Listing

Lister.ListElections reads every election concurrently. Voters see only
elections whose eligible pairs contain their (year, section);
administrators see all of them. Status is derived from the clock:

	now < start         Upcoming
	start <= now < end  Active
	now >= end          Ended
*/
package voting
