// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"path/filepath"
	"testing"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ballot.db", "ballot.db?_pragma=foreign_keys(1)"},
		{"file:ballot.db?_pragma=busy_timeout(5000)", "file:ballot.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"file:ballot.db?_pragma=foreign_keys(1)", "file:ballot.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenSQLiteForeignKeys(t *testing.T) {
	conn, err := Open("sqlite", filepath.Join(t.TempDir(), "ballot.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if err := CreateSchema(conn); err != nil {
		t.Fatal(err)
	}
	// Running it twice must be harmless
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}

	// No idle connections: every statement gets a fresh one
	conn.SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var on int
		if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatal(err)
		}
		if on != 1 {
			t.Fatalf("connection %d: foreign_keys = %d, want 1", i+1, on)
		}
	}

	_, err = conn.Exec(`INSERT INTO vote_receipt (voter_id, election_id) VALUES ('ghost', 1)`)
	if err == nil {
		t.Error("Expected a receipt for an unknown voter to be refused")
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := Open("mysql", "root@/ballot"); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}
