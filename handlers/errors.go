// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/registration"
	"github.com/danielhkuo/campus-ballot/voting"
)

// bearerToken extracts the Authorization bearer token, writing a 401 and
// returning false when it is missing or malformed.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.BearerToken(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return token, true
}

// writeError maps a flow error onto its HTTP status. Unknown errors are
// logged and reported as 500 without their detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var le *ledger.Error
	switch {
	case errors.Is(err, voting.ErrUnauthenticated):
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, voting.ErrVoterNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())

	case errors.Is(err, voting.ErrAlreadyVoted),
		errors.Is(err, voting.ErrInvalidElection),
		errors.Is(err, registration.ErrMissingField),
		errors.Is(err, registration.ErrRollNumberLength),
		errors.Is(err, registration.ErrRollNumberFormat),
		errors.Is(err, registration.ErrYearMismatch),
		errors.Is(err, registration.ErrInvalidYear):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, voting.ErrNotEligible),
		errors.Is(err, voting.ErrNotAdministrator),
		errors.Is(err, registration.ErrTokenMismatch):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())

	case errors.Is(err, voting.ErrVoteInProgress),
		errors.Is(err, registration.ErrAlreadyRegistered):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())

	case errors.As(err, &le):
		slog.Error("ledger call failed",
			"op", op,
			"request_id", r.Header.Get(middleware.RequestIDHeader),
			"kind", le.Kind.String(),
			"tx", le.TxHash,
			"error", err,
		)
		msg := "Ledger unavailable"
		if le.Kind == ledger.KindRejected {
			msg = "Ledger rejected the transaction"
			if le.Reason != "" {
				msg += ": " + le.Reason
			}
		}
		if le.Unconfirmed {
			msg = "Transaction submitted but not confirmed; do not resubmit"
		}
		middleware.ErrorResponseCode(w, http.StatusInternalServerError, le.Kind.String(), msg)

	default:
		slog.Error("request failed",
			"op", op,
			"request_id", r.Header.Get(middleware.RequestIDHeader),
			"error", err,
		)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
