// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies bearer tokens against the identity provider.

SupabaseVerifier resolves a token to an Identity by calling the provider's
user endpoint with the service role key. StaticVerifier serves tests and
local development from an in-memory token table.
*/
package auth
