// Package permission provides an insertion-ordered set of permission
// names. The engine resolves a role's permissions into a Set once at
// login and embeds the ordered names into access token claims.
package permission
