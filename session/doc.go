// Package session persists refresh sessions in Redis. Each session is
// a pair of keys, token to user and user to token, so a refresh token
// can be resolved and a user's current session revoked without a
// scan. Both keys carry the session TTL and expire together.
package session
