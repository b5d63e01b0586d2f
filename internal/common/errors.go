// Package common defines shared constants and sentinel errors used across
// the auth server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login identifier/password mismatch. Unknown identifiers and wrong
	// passwords both map here.
	ErrInvalidCredentials = errors.New("invalid user id or password")

	// Signup collision on an already registered identifier.
	ErrDuplicateIdentifier = errors.New("user id already exists")

	// Identifier is empty or longer than the storage limit.
	ErrInvalidIdentifier = errors.New("invalid user id")

	// Signature failure, expiration, malformed structure or wrong token type.
	// The cause is never exposed to the caller.
	ErrInvalidToken = errors.New("invalid token")

	// Token is valid but its subject no longer exists.
	ErrPrincipalNotFound = errors.New("user not found")

	// Valid principal without the required role.
	ErrForbidden = errors.New("insufficient role")
)
