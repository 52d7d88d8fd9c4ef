// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Memory is an in-process ledger with the same semantics as the Voting
// contract: elections are numbered from 1, votes are only accepted inside
// [start, end) and vote counters only increase. It backs development mode
// and tests.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	elections []*memElection
	nonce     uint64
	votes     int // successful RecordVote calls
	attempts  int // all RecordVote calls
	failNext  error
}

type memElection struct {
	details    Details
	candidates []Candidate
}

// NewMemory returns an empty ledger. A nil clock uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now}
}

// Add inserts an election directly, bypassing the duration based creation
// path. It returns the assigned id.
func (m *Memory) Add(title string, start, end time.Time, pairs []Pair, candidates ...string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(title, start.Unix(), end.Unix(), pairs, candidates)
}

func (m *Memory) add(title string, start, end int64, pairs []Pair, names []string) uint64 {
	id := uint64(len(m.elections) + 1)
	e := &memElection{
		details: Details{
			ID:        id,
			Title:     title,
			StartTime: start,
			EndTime:   end,
			Pairs:     append([]Pair(nil), pairs...),
		},
	}
	for i, name := range names {
		e.candidates = append(e.candidates, Candidate{ID: uint64(i + 1), Name: name})
	}
	m.elections = append(m.elections, e)
	return id
}

// FailNext makes the next RecordVote call return err without mutating state.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Votes returns the number of accepted RecordVote calls.
func (m *Memory) Votes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votes
}

// Attempts returns the number of RecordVote calls, accepted or not.
func (m *Memory) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *Memory) get(id uint64) (*memElection, error) {
	if id == 0 || id > uint64(len(m.elections)) {
		return nil, fmt.Errorf("election %d: %w", id, ErrElectionNotFound)
	}
	return m.elections[id-1], nil
}

func (m *Memory) ElectionCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Classify(methodCount, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.elections)), nil
}

func (m *Memory) ElectionDetails(ctx context.Context, id uint64) (Details, error) {
	if err := ctx.Err(); err != nil {
		return Details{}, Classify(methodDetails, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return Details{}, Classify(methodDetails, err)
	}
	d := e.details
	d.Pairs = append([]Pair(nil), d.Pairs...)
	return d, nil
}

func (m *Memory) ElectionCandidates(ctx context.Context, id uint64) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(methodCandidates, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return nil, Classify(methodCandidates, err)
	}
	return append([]Candidate(nil), e.candidates...), nil
}

func (m *Memory) RecordVote(ctx context.Context, electionID, candidateID uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Classify(methodRecordVote, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++

	if err := m.failNext; err != nil {
		m.failNext = nil
		return "", Classify(methodRecordVote, err)
	}

	e, err := m.get(electionID)
	if err != nil {
		return "", Classify(methodRecordVote, err)
	}
	now := m.now().Unix()
	if now < e.details.StartTime || now >= e.details.EndTime {
		return "", Classify(methodRecordVote, fmt.Errorf("election %d: %w", electionID, ErrElectionNotActive))
	}
	if candidateID == 0 || candidateID > uint64(len(e.candidates)) {
		return "", Classify(methodRecordVote, fmt.Errorf("candidate %d: %w", candidateID, ErrCandidateNotFound))
	}

	e.candidates[candidateID-1].Votes++
	m.votes++
	return m.txHash(electionID, candidateID), nil
}

func (m *Memory) CreateElection(ctx context.Context, spec ElectionSpec) (Created, error) {
	if err := ctx.Err(); err != nil {
		return Created{}, Classify(methodCreate, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now().Unix()
	id := m.add(spec.Title, start, start+int64(spec.Duration.Seconds()), spec.Pairs, spec.Candidates)
	return Created{ElectionID: id, TxHash: m.txHash(id, 0)}, nil
}

// txHash derives a unique transaction hash. Callers hold m.mu.
func (m *Memory) txHash(a, b uint64) string {
	m.nonce++
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:], a)
	binary.BigEndian.PutUint64(buf[8:], b)
	binary.BigEndian.PutUint64(buf[16:], m.nonce)
	return common.BytesToHash(crypto.Keccak256(buf)).Hex()
}
