// Package common contains shared constants and sentinel errors used across
// AuthKeeper components.
package common

// SessionCookieName is the name of the http-only cookie carrying the signed
// session token.
const SessionCookieName = "token"

