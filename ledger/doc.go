// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the boundary to the external system of record for
elections, candidates and vote counts.

Contract binds the deployed Voting contract over JSON-RPC with go-ethereum.
Memory implements the same behavior in process for development and tests.
Failures are returned as *Error, classified as KindRejected when the
contract refused the call and KindUnavailable otherwise.
*/
package ledger
