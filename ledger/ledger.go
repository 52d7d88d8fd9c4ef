// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"time"
)

// Pair is one (academic year, section) combination allowed to vote in an
// election.
type Pair struct {
	Year    int
	Section string
}

// Details is the ledger's definition of a single election.
type Details struct {
	ID        uint64
	Title     string
	StartTime int64 // unix seconds
	EndTime   int64 // unix seconds
	Pairs     []Pair
}

// Years returns the target years in pair order.
func (d Details) Years() []int {
	years := make([]int, len(d.Pairs))
	for i, p := range d.Pairs {
		years[i] = p.Year
	}
	return years
}

// Sections returns the target sections in pair order.
func (d Details) Sections() []string {
	sections := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		sections[i] = p.Section
	}
	return sections
}

type Candidate struct {
	ID    uint64
	Name  string
	Votes uint64
}

// ElectionSpec describes a new election to be created on the ledger.
type ElectionSpec struct {
	Title      string
	Candidates []string
	Duration   time.Duration
	Pairs      []Pair
}

// Created is returned once an election creation transaction is confirmed.
type Created struct {
	ElectionID uint64
	TxHash     string
}

// Ledger is the read side of the election contract plus the single
// state-changing vote operation. RecordVote blocks until the transaction is
// confirmed and returns its hash as the vote receipt.
type Ledger interface {
	ElectionCount(ctx context.Context) (uint64, error)
	ElectionDetails(ctx context.Context, id uint64) (Details, error)
	ElectionCandidates(ctx context.Context, id uint64) ([]Candidate, error)
	RecordVote(ctx context.Context, electionID, candidateID uint64) (string, error)
}

// Admin is implemented by ledgers that can create elections.
type Admin interface {
	CreateElection(ctx context.Context, spec ElectionSpec) (Created, error)
}
