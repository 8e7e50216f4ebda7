// Package auth verifies the single static credential that guards the API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized is matched by every authentication failure.
var ErrUnauthorized = errors.New("incorrect username or password")

// UnauthorizedError is returned by Authenticate. Challenge is the value for
// the WWW-Authenticate response header so the client can re-prompt.
type UnauthorizedError struct {
	Challenge string
}

func (e *UnauthorizedError) Error() string { return ErrUnauthorized.Error() }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// Authenticator checks a presented identity/secret pair against one
// configured credential. It keeps no state between calls.
type Authenticator struct {
	identity   []byte
	secretHash []byte
	challenge  string
}

// New builds an Authenticator from an identity and a bcrypt hash of the
// secret.
func New(identity string, secretHash []byte, realm string) (*Authenticator, error) {
	if identity == "" {
		return nil, errors.New("auth: identity must not be empty")
	}
	if _, err := bcrypt.Cost(secretHash); err != nil {
		return nil, fmt.Errorf("auth: invalid secret hash: %w", err)
	}
	if realm == "" {
		realm = "restricted"
	}

	return &Authenticator{
		identity:   []byte(identity),
		secretHash: secretHash,
		challenge:  fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm),
	}, nil
}

// NewFromSecret hashes a plaintext secret with bcrypt at the given cost and
// builds an Authenticator from the result.
func NewFromSecret(identity, secret, realm string, cost int) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth: secret must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash secret: %w", err)
	}
	return New(identity, hash, realm)
}

// Challenge returns the WWW-Authenticate header value.
func (a *Authenticator) Challenge() string {
	return a.challenge
}

// Authenticate returns nil if identity and secret match the configured
// credential and an *UnauthorizedError otherwise. The secret hash is always
// compared, even when the identity is wrong.
func (a *Authenticator) Authenticate(identity, secret string) error {
	identityMatch := subtle.ConstantTimeCompare([]byte(identity), a.identity) == 1
	secretMatch := bcrypt.CompareHashAndPassword(a.secretHash, []byte(secret)) == nil

	if !identityMatch || !secretMatch {
		return &UnauthorizedError{Challenge: a.challenge}
	}
	return nil
}
