// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseABI(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		wantErr bool
	}{
		{"built-in", "", false},
		{"base64 of built-in", base64.StdEncoding.EncodeToString([]byte(DefaultABI)), false},
		{"not base64", "%%%not-base64%%%", true},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello")), true},
		{"missing recordVote", base64.StdEncoding.EncodeToString([]byte(`[
			{"inputs": [], "name": "getElectionCount", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
		]`)), true},
		{"single year and section", base64.StdEncoding.EncodeToString([]byte(legacyABI)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseABI(tt.encoded)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseABI: %v", err)
			}
			if _, ok := parsed.Events[eventCreated]; !ok {
				t.Error("expected ElectionCreated event in ABI")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantReason string
	}{
		{"revert with reason", errors.New("execution reverted: Election is not active"), KindRejected, "Election is not active"},
		{"bare revert", errors.New("execution reverted"), KindRejected, "execution reverted"},
		{"not active", fmt.Errorf("election 3: %w", ErrElectionNotActive), KindRejected, "election 3: election not active"},
		{"timeout", context.DeadlineExceeded, KindUnavailable, ""},
		{"unknown", errors.New("connection refused"), KindUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("recordVote", tt.err)
			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if le.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", le.Kind, tt.wantKind)
			}
			if le.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", le.Reason, tt.wantReason)
			}
			if !errors.Is(err, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if Classify("x", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	once := Classify("x", errors.New("boom"))
	if Classify("y", once) != once {
		t.Error("already classified errors should pass through")
	}
}

func TestMemoryRecordVote(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	active := m.Add("Class Rep", now.Add(-time.Hour), now.Add(time.Hour),
		[]Pair{{2, "B"}, {3, "A"}}, "Alice", "Bob")
	upcoming := m.Add("Later", now.Add(time.Hour), now.Add(2*time.Hour), nil, "Carol", "Dan")
	ended := m.Add("Earlier", now.Add(-2*time.Hour), now, nil, "Eve", "Frank")

	hash1, err := m.RecordVote(ctx, active, 1)
	if err != nil {
		t.Fatalf("RecordVote: %v", err)
	}
	hash2, err := m.RecordVote(ctx, active, 1)
	if err != nil {
		t.Fatalf("RecordVote: %v", err)
	}
	if hash1 == "" || hash1 == hash2 {
		t.Errorf("expected distinct non-empty hashes, got %q and %q", hash1, hash2)
	}

	rejected := []struct {
		name      string
		election  uint64
		candidate uint64
	}{
		{"upcoming", upcoming, 1},
		{"ended at exact end", ended, 1},
		{"unknown election", 99, 1},
		{"unknown candidate", active, 3},
		{"zero candidate", active, 0},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.RecordVote(ctx, tt.election, tt.candidate)
			if !IsRejected(err) {
				t.Errorf("expected rejection, got %v", err)
			}
		})
	}

	candidates, err := m.ElectionCandidates(ctx, active)
	if err != nil {
		t.Fatalf("ElectionCandidates: %v", err)
	}
	want := []Candidate{{ID: 1, Name: "Alice", Votes: 2}, {ID: 2, Name: "Bob", Votes: 0}}
	if diff := cmp.Diff(want, candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	if m.Votes() != 2 {
		t.Errorf("Votes() = %d, want 2", m.Votes())
	}
	if m.Attempts() != 2+len(rejected) {
		t.Errorf("Attempts() = %d, want %d", m.Attempts(), 2+len(rejected))
	}
}

func TestMemoryFailNext(t *testing.T) {
	now := time.Now()
	m := NewMemory(func() time.Time { return now })
	id := m.Add("E", now.Add(-time.Minute), now.Add(time.Minute), nil, "A", "B")

	m.FailNext(context.DeadlineExceeded)
	if _, err := m.RecordVote(context.Background(), id, 1); !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if m.Votes() != 0 {
		t.Errorf("failed call must not count a vote")
	}
	if _, err := m.RecordVote(context.Background(), id, 1); err != nil {
		t.Fatalf("second call should succeed: %v", err)
	}
}

func TestMemoryCreateElection(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	created, err := m.CreateElection(ctx, ElectionSpec{
		Title:      "President",
		Candidates: []string{"Alice", "Bob"},
		Duration:   24 * time.Hour,
		Pairs:      []Pair{{1, "A"}},
	})
	if err != nil {
		t.Fatalf("CreateElection: %v", err)
	}
	if created.ElectionID != 1 || created.TxHash == "" {
		t.Errorf("unexpected result %+v", created)
	}

	d, err := m.ElectionDetails(ctx, created.ElectionID)
	if err != nil {
		t.Fatalf("ElectionDetails: %v", err)
	}
	want := Details{
		ID:        1,
		Title:     "President",
		StartTime: now.Unix(),
		EndTime:   now.Add(24 * time.Hour).Unix(),
		Pairs:     []Pair{{1, "A"}},
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, d.Years()); diff != "" {
		t.Errorf("years mismatch: %s", diff)
	}
	if diff := cmp.Diff([]string{"A"}, d.Sections()); diff != "" {
		t.Errorf("sections mismatch: %s", diff)
	}

	count, err := m.ElectionCount(ctx)
	if err != nil || count != 1 {
		t.Errorf("ElectionCount = %d, %v", count, err)
	}
}
