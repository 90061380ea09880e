package authservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vadimvill/auth-service/internal/audit"
)

// Role and permission administration. Changes take effect on the next
// token issuance; outstanding access tokens keep the permissions they
// were issued with.

func (e *Engine) CreateRole(ctx context.Context, name string) (*RoleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name", ErrInvalidInput)
	}

	role, err := e.roles.CreateRole(ctx, name)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}
	e.emit(ctx, audit.ActionRoleAdmin, "", true, nil, map[string]string{"role": name, "change": "create"})
	return role, nil
}

func (e *Engine) GetRole(ctx context.Context, id string) (*RoleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.roles.RoleByID(ctx, id)
}

func (e *Engine) RenameRole(ctx context.Context, id, name string) (*RoleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name", ErrInvalidInput)
	}

	role, err := e.roles.RenameRole(ctx, id, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionRoleAdmin, "", true, nil, map[string]string{"role": name, "change": "rename"})
	return role, nil
}

func (e *Engine) DeleteRole(ctx context.Context, id string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.roles.DeleteRole(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionRoleAdmin, "", true, nil, map[string]string{"role": id, "change": "delete"})
	return nil
}

// AssignRole moves the user onto roleID. Already-issued tokens keep
// their old role until they expire.
func (e *Engine) AssignRole(ctx context.Context, userID, roleID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.roles.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: role %q", ErrInvalidInput, roleID)
		}
		return fmt.Errorf("assign role: lookup role: %w", err)
	}
	if _, err := e.users.UpdateUser(ctx, userID, UserPatch{RoleID: &roleID}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionRoleAdmin, userID, true, nil, map[string]string{"role": roleID, "change": "assign"})
	return nil
}

func (e *Engine) CreatePermission(ctx context.Context, name string) (*PermissionRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: permission name", ErrInvalidInput)
	}

	perm, err := e.perms.CreatePermission(ctx, name)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}
	e.emit(ctx, audit.ActionPermAdmin, "", true, nil, map[string]string{"permission": name, "change": "create"})
	return perm, nil
}

func (e *Engine) RenamePermission(ctx context.Context, id, name string) (*PermissionRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: permission name", ErrInvalidInput)
	}

	perm, err := e.perms.RenamePermission(ctx, id, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionPermAdmin, "", true, nil, map[string]string{"permission": name, "change": "rename"})
	return perm, nil
}

func (e *Engine) DeletePermission(ctx context.Context, id string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.perms.DeletePermission(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionPermAdmin, "", true, nil, map[string]string{"permission": id, "change": "delete"})
	return nil
}

// GrantPermission adds the named permission to the role. Granting an
// already granted permission is a no-op.
func (e *Engine) GrantPermission(ctx context.Context, roleID, permissionName string) error {
	if err := e.ready(); err != nil {
		return err
	}
	perm, err := e.perms.PermissionByName(ctx, permissionName)
	if err != nil {
		return err
	}
	if err := e.perms.Grant(ctx, roleID, perm.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionPermAdmin, "", true, nil,
		map[string]string{"permission": permissionName, "role": roleID, "change": "grant"})
	return nil
}

// RevokePermission removes the named permission from the role.
func (e *Engine) RevokePermission(ctx context.Context, roleID, permissionName string) error {
	if err := e.ready(); err != nil {
		return err
	}
	perm, err := e.perms.PermissionByName(ctx, permissionName)
	if err != nil {
		return err
	}
	if err := e.perms.Revoke(ctx, roleID, perm.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionPermAdmin, "", true, nil,
		map[string]string{"permission": permissionName, "role": roleID, "change": "revoke"})
	return nil
}

// RoleHasPermission reports whether the role currently carries the
// named permission.
func (e *Engine) RoleHasPermission(ctx context.Context, roleID, permissionName string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	set, err := e.ResolvePermissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	return set.Has(permissionName), nil
}
