// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Kind classifies ledger failures.
type Kind int

const (
	// KindUnavailable covers network, timeout and fee estimation problems.
	// Retrying the whole request is safe.
	KindUnavailable Kind = iota
	// KindRejected means the contract refused the state transition.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "ledger_rejected"
	default:
		return "ledger_unavailable"
	}
}

var (
	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrElectionNotActive = errors.New("election not active")
)

// Error is a classified ledger failure. Reason carries the contract's revert
// message when one is available. Unconfirmed is set when the transaction
// was broadcast but its outcome could not be observed; TxHash names it.
type Error struct {
	Kind        Kind
	Op          string
	Reason      string
	Unconfirmed bool
	TxHash      string
	Err         error
}

// IsUnconfirmed reports whether err is a ledger failure whose transaction
// may still be applied.
func IsUnconfirmed(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Unconfirmed
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRejected reports whether err is a ledger rejection.
func IsRejected(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == KindRejected
}

// IsUnavailable reports whether err is a transient ledger failure.
func IsUnavailable(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == KindUnavailable
}

const revertPrefix = "execution reverted"

// Classify maps an error raised by the ledger client onto a *Error. Errors
// that are already classified pass through unchanged. Anything unrecognized
// is treated as unavailable.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}

	switch {
	case errors.Is(err, ErrElectionNotFound),
		errors.Is(err, ErrCandidateNotFound),
		errors.Is(err, ErrElectionNotActive):
		return &Error{Kind: KindRejected, Op: op, Reason: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	msg := err.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) || strings.Contains(msg, revertPrefix) {
		return &Error{Kind: KindRejected, Op: op, Reason: revertReason(msg), Err: err}
	}

	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// revertReason trims the "execution reverted: " prefix added by the node.
func revertReason(msg string) string {
	if i := strings.Index(msg, revertPrefix); i >= 0 {
		reason := strings.TrimSpace(strings.TrimPrefix(msg[i+len(revertPrefix):], ":"))
		if reason != "" {
			return reason
		}
	}
	return msg
}
