// Package auth verifies the API credential a connecting client
// presents, before a session exists.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredential indicates a credential that failed to parse
	// or verify.
	ErrInvalidCredential = errors.New("invalid api credential")

	// ErrSubjectMismatch indicates a valid credential issued to a
	// different user than the one connecting.
	ErrSubjectMismatch = errors.New("credential subject does not match user")

	// ErrUnknownUser indicates the identity lookup found no such user.
	ErrUnknownUser = errors.New("unknown user")
)

// Verifier checks that a connecting user is who they claim to be.
type Verifier interface {
	Verify(ctx context.Context, userID, credential string) error
}

// IdentityLookup is the external identity collaborator.
type IdentityLookup interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// TokenVerifier verifies HMAC-signed API tokens and confirms the user
// with the identity collaborator.
type TokenVerifier struct {
	secret   []byte
	identity IdentityLookup
	logger   *slog.Logger
}

// NewTokenVerifier creates a TokenVerifier. identity may be nil, in
// which case only the token itself is checked.
func NewTokenVerifier(secret string, identity IdentityLookup, logger *slog.Logger) *TokenVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenVerifier{
		secret:   []byte(secret),
		identity: identity,
		logger:   logger,
	}
}

// Verify checks the credential's signature and expiry, requires its
// subject to match userID, and confirms the user exists.
func (v *TokenVerifier) Verify(ctx context.Context, userID, credential string) error {
	token, err := jwt.Parse(credential,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	if subject != userID {
		return ErrSubjectMismatch
	}

	if v.identity != nil {
		exists, err := v.identity.UserExists(ctx, userID)
		if err != nil {
			return fmt.Errorf("identity lookup: %w", err)
		}
		if !exists {
			return ErrUnknownUser
		}
	}

	return nil
}
