// Package password hashes and verifies user credentials with
// argon2id. Hashes are stored in PHC string format so parameters can
// be raised later without invalidating existing records.
package password
