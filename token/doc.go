// Package token issues and verifies the short-lived JWT access
// tokens that carry a user's identity and resolved permissions
// between requests. Refresh tokens are opaque and live elsewhere;
// this package only deals with the signed access token.
package token
