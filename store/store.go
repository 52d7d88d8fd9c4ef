// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store persists voters, administrators and vote receipts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("record already exists")
	ErrReceiptExists  = errors.New("vote receipt already recorded")
	ErrClaimPending   = errors.New("vote claim already pending")
	ErrClaimNotActive = errors.New("no pending vote claim")
)

// Claim states for vote_receipt rows.
const (
	ClaimPending   = "pending"
	ClaimConfirmed = "confirmed"
)

// Voter is one registered student. VotesCast maps election id to the
// confirmed ledger receipt.
type Voter struct {
	ID           string
	Email        string
	RollNumber   string
	FullName     string
	Branch       string
	AcademicYear int
	Section      string
	CreatedAt    time.Time
	VotesCast    map[uint64]string
}

// Store is the SQL voter record store. Queries use $n placeholders, which
// both lib/pq and modernc.org/sqlite accept.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateVoter inserts a new voter with no votes cast.
func (s *Store) CreateVoter(ctx context.Context, v Voter) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voter (id, email, roll_number, full_name, branch, academic_year, section, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, v.ID, v.Email, v.RollNumber, v.FullName, v.Branch, v.AcademicYear, v.Section, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

// GetVoter loads a voter and its confirmed receipts.
func (s *Store) GetVoter(ctx context.Context, id string) (Voter, error) {
	var v Voter
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, roll_number, full_name, branch, academic_year, section, created_at
		FROM voter WHERE id = $1
	`, id).Scan(&v.ID, &v.Email, &v.RollNumber, &v.FullName, &v.Branch, &v.AcademicYear, &v.Section, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return Voter{}, ErrNotFound
	}
	if err != nil {
		return Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT election_id, tx_hash FROM vote_receipt
		WHERE voter_id = $1 AND status = $2
	`, id, ClaimConfirmed)
	if err != nil {
		return Voter{}, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	v.VotesCast = make(map[uint64]string)
	for rows.Next() {
		var electionID int64
		var txHash string
		if err := rows.Scan(&electionID, &txHash); err != nil {
			return Voter{}, fmt.Errorf("failed to scan receipt: %w", err)
		}
		v.VotesCast[uint64(electionID)] = txHash
	}
	if err := rows.Err(); err != nil {
		return Voter{}, fmt.Errorf("failed to read receipts: %w", err)
	}

	return v, nil
}

// IsAdmin reports whether userID is listed in the administrator table.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM administrator WHERE user_id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query administrator: %w", err)
	}
	return exists, nil
}

// AddAdmin grants the administrator role. Adding an existing admin is a no-op.
func (s *Store) AddAdmin(ctx context.Context, userID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO administrator (user_id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, email, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert administrator: %w", err)
	}
	return nil
}

// ClaimVote reserves the (voter, election) pair before the ledger is
// touched. The primary key makes this the single writer for the pair:
// a second claim fails with ErrClaimPending while the first is in flight
// and ErrReceiptExists once it is confirmed.
func (s *Store) ClaimVote(ctx context.Context, voterID string, electionID uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote_receipt (voter_id, election_id, status, claimed_at)
		VALUES ($1, $2, $3, $4)
	`, voterID, int64(electionID), ClaimPending, time.Now().UTC())
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("failed to claim vote: %w", err)
	}

	var status string
	err = s.db.QueryRowContext(ctx, `
		SELECT status FROM vote_receipt WHERE voter_id = $1 AND election_id = $2
	`, voterID, int64(electionID)).Scan(&status)
	if err != nil {
		return fmt.Errorf("failed to query vote claim: %w", err)
	}
	if status == ClaimConfirmed {
		return ErrReceiptExists
	}
	return ErrClaimPending
}

// ConfirmVote attaches the ledger receipt to a pending claim. Confirmed
// receipts are never overwritten.
func (s *Store) ConfirmVote(ctx context.Context, voterID string, electionID uint64, txHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vote_receipt
		SET tx_hash = $1, status = $2, confirmed_at = $3
		WHERE voter_id = $4 AND election_id = $5 AND status = $6
	`, txHash, ClaimConfirmed, time.Now().UTC(), voterID, int64(electionID), ClaimPending)
	if err != nil {
		return fmt.Errorf("failed to confirm vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm vote: %w", err)
	}
	if n == 0 {
		return ErrClaimNotActive
	}
	return nil
}

// ReleaseClaim drops a pending claim after the ledger refused the vote.
func (s *Store) ReleaseClaim(ctx context.Context, voterID string, electionID uint64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM vote_receipt
		WHERE voter_id = $1 AND election_id = $2 AND status = $3
	`, voterID, int64(electionID), ClaimPending)
	if err != nil {
		return fmt.Errorf("failed to release vote claim: %w", err)
	}
	return nil
}

// PendingClaim is a claim whose ledger outcome was never persisted.
type PendingClaim struct {
	VoterID    string
	ElectionID uint64
	ClaimedAt  time.Time
}

// PendingClaims lists claims older than olderThan that are still pending.
func (s *Store) PendingClaims(ctx context.Context, olderThan time.Duration) ([]PendingClaim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voter_id, election_id, claimed_at FROM vote_receipt
		WHERE status = $1 AND claimed_at < $2
		ORDER BY claimed_at
	`, ClaimPending, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending claims: %w", err)
	}
	defer rows.Close()

	var claims []PendingClaim
	for rows.Next() {
		var c PendingClaim
		var electionID int64
		if err := rows.Scan(&c.VoterID, &electionID, &c.ClaimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending claim: %w", err)
		}
		c.ElectionID = uint64(electionID)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// modernc.org/sqlite reports constraint failures by message
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}
