// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("POST /votes", middleware.WithLogging(handler))

Logs request start and completion with a request id. The id is taken from
an incoming X-Request-ID header or generated, and echoed on the response.

# Recovery and CORS

	server := http.Server{
		Handler: middleware.Recover(middleware.CORS(mux)),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorResponseCode(w, http.StatusInternalServerError, "ledger_unavailable", "message")
*/
package middleware
