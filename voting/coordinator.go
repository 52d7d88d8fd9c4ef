// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/store"
)

// Receipt is the outcome of an accepted vote. Persisted is false when the
// ledger accepted the vote but the receipt could not be written back.
type Receipt struct {
	ElectionID uint64
	TxHash     string
	Persisted  bool
}

// Coordinator gates, submits and records single vote submissions.
type Coordinator struct {
	resolver *Resolver
	voters   VoterStore
	ledger   ledger.Ledger

	persistAttempts int
	persistBackoff  time.Duration
}

func NewCoordinator(resolver *Resolver, voters VoterStore, l ledger.Ledger) *Coordinator {
	return &Coordinator{
		resolver:        resolver,
		voters:          voters,
		ledger:          l,
		persistAttempts: 3,
		persistBackoff:  200 * time.Millisecond,
	}
}

// SetPersistRetry overrides how often the receipt write is attempted after
// the ledger accepted a vote, and the first backoff between attempts.
func (c *Coordinator) SetPersistRetry(attempts int, backoff time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	c.persistAttempts = attempts
	c.persistBackoff = backoff
}

// SubmitVote runs the vote submission gates in order: authenticate, load
// the voter, reject a second vote, check eligibility against the ledger,
// claim the (voter, election) pair, submit to the ledger and persist the
// receipt. Nothing is written to the ledger unless every gate passes.
func (c *Coordinator) SubmitVote(ctx context.Context, token string, electionID, candidateID uint64) (Receipt, error) {
	id, err := c.resolver.Authenticate(ctx, token)
	if err != nil {
		return Receipt{}, err
	}

	voter, err := c.voters.GetVoter(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Receipt{}, ErrVoterNotFound
	}
	if err != nil {
		return Receipt{}, err
	}

	if _, voted := voter.VotesCast[electionID]; voted {
		return Receipt{}, ErrAlreadyVoted
	}

	// Eligible pairs always come from the ledger, never from a cache.
	details, err := c.ledger.ElectionDetails(ctx, electionID)
	if err != nil {
		return Receipt{}, err
	}
	if !Eligible(details.Pairs, voter.AcademicYear, voter.Section) {
		return Receipt{}, ErrNotEligible
	}

	switch err := c.voters.ClaimVote(ctx, voter.ID, electionID); {
	case errors.Is(err, store.ErrReceiptExists):
		return Receipt{}, ErrAlreadyVoted
	case errors.Is(err, store.ErrClaimPending):
		return Receipt{}, ErrVoteInProgress
	case err != nil:
		return Receipt{}, err
	}

	txHash, err := c.ledger.RecordVote(ctx, electionID, candidateID)
	if err != nil {
		c.abandon(ctx, voter.ID, electionID, err)
		return Receipt{}, err
	}

	slog.Info("vote recorded on ledger",
		"voter_id", voter.ID,
		"election_id", electionID,
		"tx", txHash,
	)

	receipt := Receipt{ElectionID: electionID, TxHash: txHash}
	if err := c.persist(ctx, voter.ID, electionID, txHash); err != nil {
		// The vote is on the ledger; report success and leave the claim
		// pending so no second vote can be submitted for this pair.
		slog.Error("PERSISTENCE WARNING: vote on ledger but receipt not stored",
			"voter_id", voter.ID,
			"election_id", electionID,
			"tx", txHash,
			"error", err,
		)
		return receipt, nil
	}
	receipt.Persisted = true
	return receipt, nil
}

// abandon releases the claim after a failed ledger call, unless the
// transaction was broadcast and its outcome is unknown.
func (c *Coordinator) abandon(ctx context.Context, voterID string, electionID uint64, cause error) {
	if ledger.IsUnconfirmed(cause) {
		slog.Error("vote transaction outcome unknown, claim kept",
			"voter_id", voterID,
			"election_id", electionID,
			"error", cause,
		)
		return
	}
	if err := c.voters.ReleaseClaim(context.WithoutCancel(ctx), voterID, electionID); err != nil {
		slog.Error("failed to release vote claim",
			"voter_id", voterID,
			"election_id", electionID,
			"error", err,
		)
	}
}

func (c *Coordinator) persist(ctx context.Context, voterID string, electionID uint64, txHash string) error {
	// The ledger write is committed; a cancelled request must not stop this.
	ctx = context.WithoutCancel(ctx)

	attempt := 0
	write := func() error {
		attempt++
		err := c.voters.ConfirmVote(ctx, voterID, electionID, txHash)
		if errors.Is(err, store.ErrClaimNotActive) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		slog.Warn("receipt write failed",
			"attempt", attempt,
			"voter_id", voterID,
			"election_id", electionID,
			"retry_in", next,
			"error", err,
		)
	}

	policy := backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(c.persistBackoff),
			backoff.WithMaxElapsedTime(0),
		),
		uint64(c.persistAttempts-1),
	)
	err := backoff.RetryNotify(write, policy, notify)
	if err == nil || errors.Is(err, store.ErrClaimNotActive) {
		return err
	}
	return fmt.Errorf("receipt not stored after %d attempts: %w", attempt, err)
}

// History returns the caller's voter record with its confirmed receipts.
func (c *Coordinator) History(ctx context.Context, token string) (store.Voter, error) {
	id, err := c.resolver.Authenticate(ctx, token)
	if err != nil {
		return store.Voter{}, err
	}
	voter, err := c.voters.GetVoter(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Voter{}, ErrVoterNotFound
	}
	return voter, err
}
