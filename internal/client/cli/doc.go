// Package cli implements the authkeeper command-line client. It talks to the
// server's JSON API for session operations, keeps the session token in a
// local file and asks the gRPC token service who the token belongs to.
package cli
