// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/campus-ballot/store"
	"github.com/danielhkuo/campus-ballot/voting"
)

var (
	ErrMissingField      = errors.New("missing required field")
	ErrTokenMismatch     = errors.New("token does not match user id")
	ErrAlreadyRegistered = errors.New("voter already registered")
)

// VoterCreator persists new voters. *store.Store implements it.
type VoterCreator interface {
	CreateVoter(ctx context.Context, v store.Voter) error
}

type Request struct {
	UserID     string
	Email      string
	RollNumber string
	Section    string
	Year       int
	Branch     string
	FullName   string
}

// Service registers authenticated users as voters.
type Service struct {
	resolver *voting.Resolver
	voters   VoterCreator
}

func NewService(resolver *voting.Resolver, voters VoterCreator) *Service {
	return &Service{resolver: resolver, voters: voters}
}

// Register validates req and creates exactly one voter record with no
// votes cast. The token's subject must equal req.UserID.
func (s *Service) Register(ctx context.Context, token string, req Request) (store.Voter, error) {
	id, err := s.resolver.Authenticate(ctx, token)
	if err != nil {
		return store.Voter{}, err
	}

	req.RollNumber = NormalizeRollNumber(req.RollNumber)
	req.Section = NormalizeSection(req.Section)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Branch = strings.TrimSpace(req.Branch)

	for field, value := range map[string]string{
		"userId":   req.UserID,
		"email":    req.Email,
		"section":  req.Section,
		"branch":   req.Branch,
		"fullName": req.FullName,
	} {
		if value == "" {
			return store.Voter{}, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	if id.UserID != req.UserID {
		slog.Warn("registration token mismatch", "token_user", id.UserID, "body_user", req.UserID)
		return store.Voter{}, ErrTokenMismatch
	}

	if err := ValidateRollNumber(req.RollNumber, req.Year); err != nil {
		return store.Voter{}, err
	}

	voter := store.Voter{
		ID:           req.UserID,
		Email:        req.Email,
		RollNumber:   req.RollNumber,
		FullName:     req.FullName,
		Branch:       req.Branch,
		AcademicYear: req.Year,
		Section:      req.Section,
		VotesCast:    map[uint64]string{},
	}
	if err := s.voters.CreateVoter(ctx, voter); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return store.Voter{}, ErrAlreadyRegistered
		}
		return store.Voter{}, err
	}

	slog.Info("voter registered", "voter_id", voter.ID, "year", voter.AcademicYear, "section", voter.Section)
	return voter, nil
}
