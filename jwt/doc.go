// Package jwt mints and parses the session tokens returned by a successful
// login. It supports HS256 and ed25519 signing; the authenticated identity
// travels in the subject claim.
package jwt
