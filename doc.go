// Package authservice is the authentication and session lifecycle
// engine behind an RBAC-backed user service. It verifies credentials
// with argon2id, issues short-lived JWT access tokens carrying the
// user's role and resolved permissions, and keeps one opaque refresh
// session per user in Redis.
//
// The Engine is built once through the Builder and then used
// concurrently:
//
//	engine, err := authservice.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithUserDirectory(users).
//		WithRoleDirectory(roles).
//		WithPermissionDirectory(perms).
//		Build()
//
// User, role and permission records live behind the three directory
// interfaces; the engine never talks to the database directly.
package authservice
