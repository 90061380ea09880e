package authservice

import (
	"context"
	"time"

	"github.com/Vadimvill/auth-service/permission"
)

// UserRecord is a user as stored in the directory. PasswordHash is an
// argon2id PHC string and never leaves the engine.
type UserRecord struct {
	ID           string
	FullName     string
	Email        string
	IsActive     bool
	PasswordHash string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleRecord is a named role users are assigned to.
type RoleRecord struct {
	ID   string
	Name string
}

// PermissionRecord is a named permission grantable to roles.
type PermissionRecord struct {
	ID   string
	Name string
}

// CreateUserInput carries the fields of a registration. Password is
// the plain credential; the engine hashes it before the directory
// ever sees it.
type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	RoleID   string
	IsActive bool
}

// UserPatch describes a partial user update. Nil fields are left
// untouched, so callers state exactly what they change.
type UserPatch struct {
	FullName     *string
	Email        *string
	IsActive     *bool
	PasswordHash *string
	RoleID       *string
}

// Claims is the verified identity attached to an authenticated
// request.
type Claims struct {
	UserID      string
	RoleID      string
	Permissions *permission.Set
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// UserDirectory is the engine's view of user storage. Lookup misses
// return ErrNotFound; CreateUser returns ErrAlreadyExists when the
// email is taken.
type UserDirectory interface {
	UserByID(ctx context.Context, id string) (*UserRecord, error)
	UserByEmail(ctx context.Context, email string) (*UserRecord, error)
	CreateUser(ctx context.Context, user UserRecord) (*UserRecord, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*UserRecord, error)
}

// RoleDirectory stores roles.
type RoleDirectory interface {
	RoleByID(ctx context.Context, id string) (*RoleRecord, error)
	RoleByName(ctx context.Context, name string) (*RoleRecord, error)
	CreateRole(ctx context.Context, name string) (*RoleRecord, error)
	RenameRole(ctx context.Context, id, name string) (*RoleRecord, error)
	DeleteRole(ctx context.Context, id string) error
}

// PermissionDirectory stores permissions and their grants to roles.
// PermissionsByRole returns names ordered by when each grant was
// created, or ErrNotFound when the role itself does not exist.
type PermissionDirectory interface {
	PermissionByID(ctx context.Context, id string) (*PermissionRecord, error)
	PermissionByName(ctx context.Context, name string) (*PermissionRecord, error)
	CreatePermission(ctx context.Context, name string) (*PermissionRecord, error)
	RenamePermission(ctx context.Context, id, name string) (*PermissionRecord, error)
	DeletePermission(ctx context.Context, id string) error
	Grant(ctx context.Context, roleID, permissionID string) error
	Revoke(ctx context.Context, roleID, permissionID string) error
	PermissionsByRole(ctx context.Context, roleID string) ([]string, error)
}

// LoginResult is what a successful credential login yields.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Claims       *Claims
}
