// Package common defines shared constants and sentinel errors used across
// the AuthKeeper server and client. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrorDuplicateKey = errors.New("duplicate key")

	// Service-level errors. These are the only failures the session service
	// hands to transports.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("user already exists")

	// ErrorInvalidCredentials is returned for both an unknown email and a wrong
	// password so callers cannot tell the two apart.
	ErrorInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrorUnauthorized)

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
