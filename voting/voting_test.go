// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/store"
	"github.com/danielhkuo/campus-ballot/testutil"
)

func TestStatus(t *testing.T) {
	const start, end = 1000, 2000
	tests := []struct {
		now  int64
		want string
	}{
		{999, StatusUpcoming},
		{1000, StatusActive},
		{1500, StatusActive},
		{1999, StatusActive},
		{2000, StatusEnded},
		{5000, StatusEnded},
	}
	for _, tt := range tests {
		if got := Status(time.Unix(tt.now, 0), start, end); got != tt.want {
			t.Errorf("Status(%d) = %s, want %s", tt.now, got, tt.want)
		}
	}
}

func TestEligible(t *testing.T) {
	pairs := []ledger.Pair{{Year: 2, Section: "B"}, {Year: 3, Section: "A"}}
	tests := []struct {
		year    int
		section string
		want    bool
	}{
		{2, "B", true},
		{3, "A", true},
		{2, "A", false}, // year and section must match the same pair
		{3, "B", false},
		{2, "C", false},
		{1, "B", false},
	}
	for _, tt := range tests {
		if got := Eligible(pairs, tt.year, tt.section); got != tt.want {
			t.Errorf("Eligible(%d, %q) = %v, want %v", tt.year, tt.section, got, tt.want)
		}
	}
	if Eligible(nil, 2, "B") {
		t.Error("No pairs must mean nobody is eligible")
	}
}

type downVerifier struct{}

func (downVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	return auth.Identity{}, errors.New("identity provider unreachable")
}

func TestResolve(t *testing.T) {
	env := testutil.NewEnv(t)
	voter := env.CreateTestVoter(t, "voter-1", 1, "A")
	admin := env.CreateTestAdmin(t, "admin-1")
	stranger := env.IssueToken("stranger")

	r := NewResolver(env.Verifier, env.Store)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  Role
	}{
		{"voter", voter, RoleVoter},
		{"administrator", admin, RoleAdministrator},
		{"unregistered is not privileged", stranger, RoleUnregistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, err := r.Resolve(ctx, tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if caller.Role != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, caller.Role)
			}
			if (caller.Voter != nil) != (tt.want == RoleVoter) {
				t.Errorf("Voter record set for role %s", caller.Role)
			}
		})
	}

	if _, err := r.Resolve(ctx, "forged"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
	if _, err := r.Resolve(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for empty token, got %v", err)
	}

	down := NewResolver(downVerifier{}, env.Store)
	if _, err := down.Resolve(ctx, voter); err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected a provider error, got %v", err)
	}
}

// detailsOutage fails every ElectionDetails call.
type detailsOutage struct {
	*ledger.Memory
}

func (detailsOutage) ElectionDetails(ctx context.Context, id uint64) (ledger.Details, error) {
	return ledger.Details{}, ledger.Classify("getElectionDetails", context.DeadlineExceeded)
}

func TestSubmitVote_NoMutationBeforeLedger(t *testing.T) {
	env := testutil.NewEnv(t)
	election := env.AddActiveElection("Class Rep", ledger.Pair{Year: 2, Section: "B"})
	voter := env.CreateTestVoter(t, "voter-2b", 2, "B")
	other := env.CreateTestVoter(t, "voter-2c", 2, "C")
	ctx := context.Background()

	tests := []struct {
		name    string
		ledger  ledger.Ledger
		token   string
		wantErr func(error) bool
	}{
		{"unauthenticated", env.Ledger, "forged", func(err error) bool { return errors.Is(err, ErrUnauthenticated) }},
		{"unregistered", env.Ledger, env.IssueToken("ghost"), func(err error) bool { return errors.Is(err, ErrVoterNotFound) }},
		{"not eligible", env.Ledger, other, func(err error) bool { return errors.Is(err, ErrNotEligible) }},
		{"eligibility unreadable", detailsOutage{env.Ledger}, voter, ledger.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoordinator(NewResolver(env.Verifier, env.Store), env.Store, tt.ledger)
			_, err := c.SubmitVote(ctx, tt.token, election, 1)
			if !tt.wantErr(err) {
				t.Fatalf("Unexpected error %v", err)
			}
		})
	}

	if env.Ledger.Attempts() != 0 {
		t.Errorf("Expected no ledger calls, got %d", env.Ledger.Attempts())
	}
	claims, err := env.Store.PendingClaims(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected no claims, got %+v", claims)
	}
}

// flakyReceipts fails the first n ConfirmVote calls, or every call with
// ErrClaimNotActive when notActive is set.
type flakyReceipts struct {
	*store.Store
	failures  atomic.Int32
	calls     atomic.Int32
	notActive bool
}

func (s *flakyReceipts) ConfirmVote(ctx context.Context, voterID string, electionID uint64, txHash string) error {
	s.calls.Add(1)
	if s.notActive {
		return store.ErrClaimNotActive
	}
	if s.failures.Add(-1) >= 0 {
		return errors.New("database is locked")
	}
	return s.Store.ConfirmVote(ctx, voterID, electionID, txHash)
}

func TestSubmitVote_PersistRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      int32
		notActive     bool
		wantPersisted bool
		wantCalls     int32
	}{
		{"first write succeeds", 0, false, true, 1},
		{"succeeds on third attempt", 2, false, true, 3},
		{"every attempt fails", 3, false, false, 3},
		{"claim gone is not retried", 0, true, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			election := env.AddActiveElection("Class Rep", ledger.Pair{Year: 4, Section: "A"})
			token := env.CreateTestVoter(t, "voter-4a", 4, "A")

			voters := &flakyReceipts{Store: env.Store}
			voters.failures.Store(tt.failures)
			voters.notActive = tt.notActive
			c := NewCoordinator(NewResolver(env.Verifier, voters), voters, env.Ledger)
			c.SetPersistRetry(3, 0)

			receipt, err := c.SubmitVote(context.Background(), token, election, 2)
			if err != nil {
				t.Fatal(err)
			}
			if receipt.TxHash == "" {
				t.Error("Expected a receipt even when it could not be stored")
			}
			if receipt.Persisted != tt.wantPersisted {
				t.Errorf("Expected Persisted=%v, got %v", tt.wantPersisted, receipt.Persisted)
			}
			if got := voters.calls.Load(); got != tt.wantCalls {
				t.Errorf("Expected %d receipt writes, got %d", tt.wantCalls, got)
			}

			history, err := c.History(context.Background(), token)
			if err != nil {
				t.Fatal(err)
			}
			_, stored := history.VotesCast[election]
			if stored != tt.wantPersisted {
				t.Errorf("Expected stored=%v, history %v", tt.wantPersisted, history.VotesCast)
			}
		})
	}
}

// flakyCandidates fails candidate reads for one election.
type flakyCandidates struct {
	*ledger.Memory
	broken uint64
}

func (l flakyCandidates) ElectionCandidates(ctx context.Context, id uint64) ([]ledger.Candidate, error) {
	if id == l.broken {
		return nil, ledger.Classify("getElectionCandidates", errors.New("connection reset by peer"))
	}
	return l.Memory.ElectionCandidates(ctx, id)
}

func TestListElections_SkipsUnreadable(t *testing.T) {
	env := testutil.NewEnv(t)
	first := env.AddActiveElection("First", ledger.Pair{Year: 1, Section: "A"})
	broken := env.AddActiveElection("Broken", ledger.Pair{Year: 1, Section: "A"})
	third := env.AddActiveElection("Third", ledger.Pair{Year: 1, Section: "A"})
	admin := env.CreateTestAdmin(t, "admin-1")

	l := NewLister(NewResolver(env.Verifier, env.Store), flakyCandidates{Memory: env.Ledger, broken: broken})
	l.SetClock(func() time.Time { return env.Now })
	l.SetConcurrency(2)

	elections, err := l.ListElections(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}

	var ids []uint64
	for _, e := range elections {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]uint64{third, first}, ids); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

// countInflated reports a huge election count and records which ids are read.
type countInflated struct {
	*ledger.Memory
	count  uint64
	reads  atomic.Int64
	lowest atomic.Uint64
}

func (l *countInflated) ElectionCount(ctx context.Context) (uint64, error) {
	return l.count, nil
}

func (l *countInflated) ElectionDetails(ctx context.Context, id uint64) (ledger.Details, error) {
	l.reads.Add(1)
	for {
		cur := l.lowest.Load()
		if cur != 0 && cur <= id {
			break
		}
		if l.lowest.CompareAndSwap(cur, id) {
			break
		}
	}
	return l.Memory.ElectionDetails(ctx, id)
}

func TestListElections_CountIsCapped(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateTestAdmin(t, "admin-1")

	inflated := &countInflated{Memory: env.Ledger, count: 1 << 40}
	l := NewLister(NewResolver(env.Verifier, env.Store), inflated)

	elections, err := l.ListElections(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(elections) != 0 {
		t.Errorf("Expected no readable elections, got %d", len(elections))
	}
	if got := inflated.reads.Load(); got != MaxListedElections {
		t.Errorf("Expected %d reads, got %d", MaxListedElections, got)
	}
	if want := inflated.count - MaxListedElections + 1; inflated.lowest.Load() != want {
		t.Errorf("Expected the oldest read to be %d, got %d", want, inflated.lowest.Load())
	}
}

// countOutage fails ElectionCount.
type countOutage struct {
	*ledger.Memory
}

func (countOutage) ElectionCount(ctx context.Context) (uint64, error) {
	return 0, ledger.Classify("getElectionCount", errors.New("no route to host"))
}

func TestListElections_CountFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	voter := env.CreateTestVoter(t, "voter-1a", 1, "A")

	l := NewLister(NewResolver(env.Verifier, env.Store), countOutage{env.Ledger})
	if _, err := l.ListElections(context.Background(), voter); !ledger.IsUnavailable(err) {
		t.Errorf("Expected ledger unavailable, got %v", err)
	}
}

func TestValidateElection(t *testing.T) {
	base := func() ledger.ElectionSpec {
		return ledger.ElectionSpec{
			Title:      "Council",
			Candidates: []string{"A", "B"},
			Duration:   time.Hour,
			Pairs:      []ledger.Pair{{Year: 1, Section: "A"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ledger.ElectionSpec)
		wantErr bool
	}{
		{"valid", func(s *ledger.ElectionSpec) {}, false},
		{"blank title", func(s *ledger.ElectionSpec) { s.Title = "  " }, true},
		{"one candidate", func(s *ledger.ElectionSpec) { s.Candidates = []string{"A"} }, true},
		{"blank candidate", func(s *ledger.ElectionSpec) { s.Candidates = []string{"A", " "} }, true},
		{"negative duration", func(s *ledger.ElectionSpec) { s.Duration = -time.Minute }, true},
		{"under a second", func(s *ledger.ElectionSpec) { s.Duration = 500 * time.Millisecond }, true},
		{"exactly one second", func(s *ledger.ElectionSpec) { s.Duration = time.Second }, false},
		{"longest window", func(s *ledger.ElectionSpec) { s.Duration = MaxElectionDuration }, false},
		{"over the longest window", func(s *ledger.ElectionSpec) { s.Duration = MaxElectionDuration + time.Second }, true},
		{"no pairs", func(s *ledger.ElectionSpec) { s.Pairs = nil }, true},
		{"year zero", func(s *ledger.ElectionSpec) { s.Pairs = []ledger.Pair{{Year: 0, Section: "A"}} }, true},
		{"blank section", func(s *ledger.ElectionSpec) { s.Pairs = []ledger.Pair{{Year: 1, Section: ""}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base()
			tt.mutate(&spec)
			err := ValidateElection(&spec)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidElection) {
				t.Errorf("Expected ErrInvalidElection, got %v", err)
			}
		})
	}

	spec := base()
	spec.Pairs = []ledger.Pair{{Year: 2, Section: " b"}, {Year: 2, Section: "B"}, {Year: 3, Section: "a"}}
	if err := ValidateElection(&spec); err != nil {
		t.Fatal(err)
	}
	want := []ledger.Pair{{Year: 2, Section: "B"}, {Year: 3, Section: "A"}}
	if diff := cmp.Diff(want, spec.Pairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
}
