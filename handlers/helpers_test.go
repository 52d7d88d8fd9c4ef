// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/campus-ballot/registration"
	"github.com/danielhkuo/campus-ballot/testutil"
	"github.com/danielhkuo/campus-ballot/voting"
)

type testServer struct {
	env         *testutil.Env
	coordinator *voting.Coordinator
	votes       *VoteHandler
	voters      *VoterHandler
	elections   *ElectionHandler
	admin       *AdminHandler
}

// newTestServer wires every handler against a fresh Env.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	env := testutil.NewEnv(t)
	return newTestServerWithStore(t, env, env.Store)
}

// newTestServerWithStore wires the handlers with store standing in for the
// Env's store in the vote flows.
func newTestServerWithStore(t *testing.T, env *testutil.Env, store voting.VoterStore) *testServer {
	t.Helper()

	resolver := voting.NewResolver(env.Verifier, store)
	coordinator := voting.NewCoordinator(resolver, store, env.Ledger)
	coordinator.SetPersistRetry(2, time.Millisecond)

	lister := voting.NewLister(resolver, env.Ledger)
	lister.SetClock(func() time.Time { return env.Now })
	lister.SetConcurrency(testutil.GetTestConfig().ListConcurrency)

	administration := voting.NewAdministration(resolver, store, env.Ledger)

	return &testServer{
		env:         env,
		coordinator: coordinator,
		votes:       NewVoteHandler(coordinator),
		voters:      NewVoterHandler(registration.NewService(resolver, env.Store), coordinator),
		elections:   NewElectionHandler(lister, administration),
		admin:       NewAdminHandler(administration),
	}
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}
