// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/store"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp dir.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    "sqlite",
		SupabaseURL:     "http://localhost:54321",
		SupabaseKey:     "test-service-key",
		ListConcurrency: 4,
	}
}

// Env bundles the collaborators handlers and flows are built from.
type Env struct {
	DB       *sql.DB
	Store    *store.Store
	Verifier *auth.StaticVerifier
	Ledger   *ledger.Memory
	Now      time.Time
}

// NewEnv returns a fresh database, static verifier and in-memory ledger
// whose clock is frozen at Env.Now.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	conn := SetupTestDB(t)
	now := time.Unix(1_750_000_000, 0)
	return &Env{
		DB:       conn,
		Store:    store.New(conn),
		Verifier: auth.NewStaticVerifier(),
		Ledger:   ledger.NewMemory(func() time.Time { return now }),
		Now:      now,
	}
}

var rollCounter atomic.Int64

var yearBatch = map[int]string{1: "25", 2: "24", 3: "23", 4: "22"}

// CreateTestVoter registers a voter directly in the store and returns a
// bearer token for it.
func (e *Env) CreateTestVoter(t *testing.T, id string, year int, section string) string {
	t.Helper()

	err := e.Store.CreateVoter(context.Background(), store.Voter{
		ID:           id,
		Email:        id + "@school.edu",
		RollNumber:   fmt.Sprintf("%sTST%08d", yearBatch[year], rollCounter.Add(1)),
		FullName:     "Test " + id,
		Branch:       "CSE",
		AcademicYear: year,
		Section:      section,
	})
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return e.IssueToken(id)
}

// CreateTestAdmin grants id the administrator role and returns a token.
func (e *Env) CreateTestAdmin(t *testing.T, id string) string {
	t.Helper()

	if err := e.Store.AddAdmin(context.Background(), id, id+"@school.edu"); err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return e.IssueToken(id)
}

// IssueToken makes the verifier accept a token for id without creating any
// records.
func (e *Env) IssueToken(id string) string {
	token := "token-" + id
	e.Verifier.Issue(token, auth.Identity{UserID: id, Email: id + "@school.edu"})
	return token
}

// AddActiveElection adds an election open for the next hour with
// candidates Alice and Bob.
func (e *Env) AddActiveElection(title string, pairs ...ledger.Pair) uint64 {
	return e.Ledger.Add(title, e.Now.Add(-time.Hour), e.Now.Add(time.Hour), pairs, "Alice", "Bob")
}

// Bearer returns the Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
