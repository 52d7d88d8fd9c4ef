// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the voter record store and creates its schema.

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

PostgreSQL goes through lib/pq and SQLite through modernc.org/sqlite. The
schema is written once for both and is safe to apply repeatedly.

# Tables

  - voter: one row per registered student, roll_number unique
  - administrator: user ids holding the administrator role
  - vote_receipt: one row per (voter, election), pending while the ledger
    call is in flight and confirmed once the receipt is stored

The vote_receipt primary key is what serializes concurrent submissions for
the same voter and election.
*/
package db
