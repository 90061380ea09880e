// Package directory implements the engine's user, role and
// permission directories. The GormDirectory backs them with Postgres;
// the MemoryDirectory is an in-process implementation for tests and
// small deployments.
package directory

import "time"

// userModel is the users table. IDs are UUID strings assigned by the
// caller; the directory never generates identifiers.
type userModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	FullName     string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	IsActive     bool   `gorm:"not null"`
	PasswordHash string `gorm:"size:512;not null"`
	RoleID       string `gorm:"size:36;index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (roleModel) TableName() string { return "roles" }

type permissionModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (permissionModel) TableName() string { return "permissions" }

// rolePermissionModel is the grant junction table. CreatedAt orders
// PermissionsByRole, so a role's permission list is stable across
// reads.
type rolePermissionModel struct {
	RoleID       string `gorm:"primaryKey;size:36"`
	PermissionID string `gorm:"primaryKey;size:36"`
	CreatedAt    time.Time
}

func (rolePermissionModel) TableName() string { return "role_permissions" }
