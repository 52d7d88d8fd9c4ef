// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
)

var (
	ErrMissingToken = errors.New("bearer token required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the caller as vouched for by the identity provider.
type Identity struct {
	UserID string
	Email  string
}

// Verifier resolves a bearer token to an Identity. Implementations return
// ErrInvalidToken when the provider rejects the token; any other error means
// the provider could not be asked.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// SupabaseVerifier checks tokens against a Supabase project's GoTrue API
// (GET /auth/v1/user) with the service role key.
type SupabaseVerifier struct {
	client gotrue.Client
}

func NewSupabaseVerifier(baseURL, serviceKey string) *SupabaseVerifier {
	client := gotrue.New("", serviceKey).
		WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithClient(http.Client{Timeout: 10 * time.Second})
	return &SupabaseVerifier{client: client}
}

// Verify asks the provider who token belongs to. The GoTrue client takes no
// context; ctx is only checked before the call.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	user, err := v.client.WithToken(token).GetUser()
	if err != nil {
		switch providerStatus(err) {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
			return Identity{}, ErrInvalidToken
		default:
			return Identity{}, fmt.Errorf("identity lookup failed: %w", err)
		}
	}
	if user.ID == uuid.Nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: user.ID.String(), Email: user.Email}, nil
}

// providerStatus extracts the HTTP status from a GoTrue client error
// ("response status code 401: ..."), or 0 when the request never got one.
func providerStatus(err error) int {
	var code int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &code); scanErr != nil {
		return 0
	}
	return code
}

// StaticVerifier maps fixed tokens to identities. Used by tests and local
// development.
type StaticVerifier struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{tokens: make(map[string]Identity)}
}

// Issue registers token for id.
func (v *StaticVerifier) Issue(token string, id Identity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[token] = id
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
