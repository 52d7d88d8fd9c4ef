// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/store"
)

// VoterStore is the part of the voter record store the flows depend on.
// *store.Store implements it.
type VoterStore interface {
	GetVoter(ctx context.Context, id string) (store.Voter, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	ClaimVote(ctx context.Context, voterID string, electionID uint64) error
	ConfirmVote(ctx context.Context, voterID string, electionID uint64, txHash string) error
	ReleaseClaim(ctx context.Context, voterID string, electionID uint64) error
	PendingClaims(ctx context.Context, olderThan time.Duration) ([]store.PendingClaim, error)
}

type Role int

const (
	RoleUnregistered Role = iota
	RoleVoter
	RoleAdministrator
)

func (r Role) String() string {
	switch r {
	case RoleVoter:
		return "voter"
	case RoleAdministrator:
		return "administrator"
	default:
		return "unregistered"
	}
}

// Caller is an authenticated request principal. Voter is set only for
// RoleVoter.
type Caller struct {
	Identity auth.Identity
	Role     Role
	Voter    *store.Voter
}

// Resolver authenticates bearer tokens and assigns roles. Administrators are
// recognised by a positive lookup in the administrator table; a caller that
// is neither an administrator nor a registered voter is RoleUnregistered.
type Resolver struct {
	verifier auth.Verifier
	voters   VoterStore
}

func NewResolver(verifier auth.Verifier, voters VoterStore) *Resolver {
	return &Resolver{verifier: verifier, voters: voters}
}

// Authenticate verifies token. Rejected or missing tokens yield
// ErrUnauthenticated; provider outages are returned as-is.
func (r *Resolver) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	id, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
			return auth.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return auth.Identity{}, fmt.Errorf("failed to verify token: %w", err)
	}
	return id, nil
}

func (r *Resolver) Resolve(ctx context.Context, token string) (Caller, error) {
	id, err := r.Authenticate(ctx, token)
	if err != nil {
		return Caller{}, err
	}

	isAdmin, err := r.voters.IsAdmin(ctx, id.UserID)
	if err != nil {
		return Caller{}, err
	}
	if isAdmin {
		return Caller{Identity: id, Role: RoleAdministrator}, nil
	}

	voter, err := r.voters.GetVoter(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Caller{Identity: id, Role: RoleUnregistered}, nil
	}
	if err != nil {
		return Caller{}, err
	}
	return Caller{Identity: id, Role: RoleVoter, Voter: &voter}, nil
}
