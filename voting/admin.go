// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/store"
)

// Administration holds the operations reserved for administrators.
type Administration struct {
	resolver *Resolver
	voters   VoterStore
	ledger   ledger.Admin
}

func NewAdministration(resolver *Resolver, voters VoterStore, l ledger.Admin) *Administration {
	return &Administration{resolver: resolver, voters: voters, ledger: l}
}

func (a *Administration) requireAdmin(ctx context.Context, token string) (Caller, error) {
	caller, err := a.resolver.Resolve(ctx, token)
	if err != nil {
		return Caller{}, err
	}
	if caller.Role != RoleAdministrator {
		return Caller{}, ErrNotAdministrator
	}
	return caller, nil
}

// MaxElectionDuration is the longest voting window an election may have.
const MaxElectionDuration = 366 * 24 * time.Hour

// ValidateElection normalizes spec in place and checks it.
func ValidateElection(spec *ledger.ElectionSpec) error {
	spec.Title = strings.TrimSpace(spec.Title)
	if spec.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidElection)
	}

	if len(spec.Candidates) < 2 {
		return fmt.Errorf("%w: at least two candidates are required", ErrInvalidElection)
	}
	for i, name := range spec.Candidates {
		spec.Candidates[i] = strings.TrimSpace(name)
		if spec.Candidates[i] == "" {
			return fmt.Errorf("%w: candidate names must be non-empty", ErrInvalidElection)
		}
	}

	if spec.Duration < time.Second {
		return fmt.Errorf("%w: duration must be at least one second", ErrInvalidElection)
	}
	if spec.Duration > MaxElectionDuration {
		return fmt.Errorf("%w: duration must not exceed %s", ErrInvalidElection, MaxElectionDuration)
	}

	if len(spec.Pairs) == 0 {
		return fmt.Errorf("%w: at least one eligible year/section is required", ErrInvalidElection)
	}
	seen := make(map[ledger.Pair]bool, len(spec.Pairs))
	pairs := spec.Pairs[:0]
	for _, p := range spec.Pairs {
		p.Section = strings.ToUpper(strings.TrimSpace(p.Section))
		if p.Year < 1 || p.Year > 4 {
			return fmt.Errorf("%w: target year %d out of range", ErrInvalidElection, p.Year)
		}
		if p.Section == "" {
			return fmt.Errorf("%w: target sections must be non-empty", ErrInvalidElection)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	spec.Pairs = pairs
	return nil
}

// CreateElection validates spec and creates it on the ledger.
func (a *Administration) CreateElection(ctx context.Context, token string, spec ledger.ElectionSpec) (ledger.Created, error) {
	caller, err := a.requireAdmin(ctx, token)
	if err != nil {
		return ledger.Created{}, err
	}
	if err := ValidateElection(&spec); err != nil {
		return ledger.Created{}, err
	}

	created, err := a.ledger.CreateElection(ctx, spec)
	if err != nil {
		return ledger.Created{}, err
	}

	slog.Info("election created",
		"election_id", created.ElectionID,
		"title", spec.Title,
		"candidates", len(spec.Candidates),
		"closes", humanize.Time(time.Now().Add(spec.Duration)),
		"admin", caller.Identity.UserID,
		"tx", created.TxHash,
	)
	return created, nil
}

// PendingClaims lists vote claims that never received a receipt. Each one
// is a vote whose ledger outcome has to be reconciled by hand.
func (a *Administration) PendingClaims(ctx context.Context, token string, olderThan time.Duration) ([]store.PendingClaim, error) {
	if _, err := a.requireAdmin(ctx, token); err != nil {
		return nil, err
	}
	return a.voters.PendingClaims(ctx, olderThan)
}
