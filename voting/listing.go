// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/campus-ballot/ledger"
)

// Election is one listed election with its tally.
type Election struct {
	ledger.Details
	Candidates []ledger.Candidate
	TotalVotes uint64
	Status     string
}

// MaxListedElections bounds how many of the newest elections one listing
// reads from the ledger.
const MaxListedElections = 1000

// Lister builds the election listing for a caller.
type Lister struct {
	resolver    *Resolver
	ledger      ledger.Ledger
	now         func() time.Time
	concurrency int
}

func NewLister(resolver *Resolver, l ledger.Ledger) *Lister {
	return &Lister{
		resolver:    resolver,
		ledger:      l,
		now:         time.Now,
		concurrency: 8,
	}
}

// SetConcurrency bounds how many elections are fetched at once.
func (l *Lister) SetConcurrency(n int) {
	if n > 0 {
		l.concurrency = n
	}
}

// SetClock replaces the clock used to derive election status.
func (l *Lister) SetClock(now func() time.Time) {
	l.now = now
}

// ListElections returns the elections visible to the caller, newest first.
// Voters see only elections whose eligible pairs contain their year and
// section; administrators see everything. An election that cannot be read
// is left out rather than failing the whole listing.
func (l *Lister) ListElections(ctx context.Context, token string) ([]Election, error) {
	caller, err := l.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if caller.Role == RoleUnregistered {
		return nil, ErrVoterNotFound
	}

	count, err := l.ledger.ElectionCount(ctx)
	if err != nil {
		return nil, err
	}

	first := uint64(1)
	if count > MaxListedElections {
		slog.Warn("listing only the newest elections",
			"count", count,
			"limit", MaxListedElections,
		)
		first = count - MaxListedElections + 1
	}

	now := l.now()
	results := make([]*Election, count-first+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for id := first; id <= count; id++ {
		g.Go(func() error {
			e, visible, err := l.fetch(gctx, id, caller, now)
			if err != nil {
				slog.Warn("failed to fetch election", "election_id", id, "error", err)
				return nil
			}
			if visible {
				results[id-first] = &e
			}
			return nil
		})
	}
	// Workers never return an error; unreadable elections are logged and skipped.
	_ = g.Wait()

	elections := make([]Election, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		if results[i] != nil {
			elections = append(elections, *results[i])
		}
	}
	return elections, nil
}

func (l *Lister) fetch(ctx context.Context, id uint64, caller Caller, now time.Time) (Election, bool, error) {
	details, err := l.ledger.ElectionDetails(ctx, id)
	if err != nil {
		return Election{}, false, err
	}

	if caller.Role == RoleVoter && !Eligible(details.Pairs, caller.Voter.AcademicYear, caller.Voter.Section) {
		return Election{}, false, nil
	}

	candidates, err := l.ledger.ElectionCandidates(ctx, id)
	if err != nil {
		return Election{}, false, err
	}

	var total uint64
	for _, c := range candidates {
		total += c.Votes
	}

	return Election{
		Details:    details,
		Candidates: candidates,
		TotalVotes: total,
		Status:     Status(now, details.StartTime, details.EndTime),
	}, true, nil
}
