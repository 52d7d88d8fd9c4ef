// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"time"

	"github.com/danielhkuo/campus-ballot/ledger"
)

// Election status values, derived from the clock and never stored.
const (
	StatusUpcoming = "Upcoming"
	StatusActive   = "Active"
	StatusEnded    = "Ended"
)

// Eligible reports whether (year, section) exactly matches one of pairs.
func Eligible(pairs []ledger.Pair, year int, section string) bool {
	for _, p := range pairs {
		if p.Year == year && p.Section == section {
			return true
		}
	}
	return false
}

// Status derives the election status for now over the window [start, end).
func Status(now time.Time, start, end int64) string {
	ts := now.Unix()
	switch {
	case ts < start:
		return StatusUpcoming
	case ts < end:
		return StatusActive
	default:
		return StatusEnded
	}
}
