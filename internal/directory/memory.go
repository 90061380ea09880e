package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	authservice "github.com/Vadimvill/auth-service"
)

// MemoryDirectory keeps all records in process memory guarded by one
// RWMutex. It mirrors GormDirectory's behavior exactly, including
// grant ordering, and backs the engine's test suites.
type MemoryDirectory struct {
	mu     sync.RWMutex
	users  map[string]authservice.UserRecord
	roles  map[string]authservice.RoleRecord
	perms  map[string]authservice.PermissionRecord
	grants map[string][]string // roleID -> permission IDs in grant order
}

var (
	_ authservice.UserDirectory       = (*MemoryDirectory)(nil)
	_ authservice.RoleDirectory       = (*MemoryDirectory)(nil)
	_ authservice.PermissionDirectory = (*MemoryDirectory)(nil)
)

func NewMemory() *MemoryDirectory {
	return &MemoryDirectory{
		users:  make(map[string]authservice.UserRecord),
		roles:  make(map[string]authservice.RoleRecord),
		perms:  make(map[string]authservice.PermissionRecord),
		grants: make(map[string][]string),
	}
}

func (d *MemoryDirectory) UserByID(_ context.Context, id string) (*authservice.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", authservice.ErrNotFound)
	}
	return &user, nil
}

func (d *MemoryDirectory) UserByEmail(_ context.Context, email string) (*authservice.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, user := range d.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user", authservice.ErrNotFound)
}

func (d *MemoryDirectory) CreateUser(_ context.Context, user authservice.UserRecord) (*authservice.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.users {
		if existing.Email == user.Email {
			return nil, fmt.Errorf("%w: email %q", authservice.ErrAlreadyExists, user.Email)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	d.users[user.ID] = user
	u := user
	return &u, nil
}

func (d *MemoryDirectory) UpdateUser(_ context.Context, id string, patch authservice.UserPatch) (*authservice.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", authservice.ErrNotFound)
	}
	if patch.Email != nil {
		for otherID, other := range d.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, fmt.Errorf("%w: email %q", authservice.ErrAlreadyExists, *patch.Email)
			}
		}
		user.Email = *patch.Email
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.RoleID != nil {
		user.RoleID = *patch.RoleID
	}
	user.UpdatedAt = time.Now()

	d.users[id] = user
	u := user
	return &u, nil
}

func (d *MemoryDirectory) RoleByID(_ context.Context, id string) (*authservice.RoleRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	role, ok := d.roles[id]
	if !ok {
		return nil, fmt.Errorf("%w: role", authservice.ErrNotFound)
	}
	return &role, nil
}

func (d *MemoryDirectory) RoleByName(_ context.Context, name string) (*authservice.RoleRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, role := range d.roles {
		if role.Name == name {
			r := role
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: role", authservice.ErrNotFound)
}

func (d *MemoryDirectory) CreateRole(_ context.Context, name string) (*authservice.RoleRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, role := range d.roles {
		if role.Name == name {
			return nil, fmt.Errorf("%w: role %q", authservice.ErrAlreadyExists, name)
		}
	}
	role := authservice.RoleRecord{ID: uuid.NewString(), Name: name}
	d.roles[role.ID] = role
	return &role, nil
}

func (d *MemoryDirectory) RenameRole(_ context.Context, id, name string) (*authservice.RoleRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	role, ok := d.roles[id]
	if !ok {
		return nil, fmt.Errorf("%w: role", authservice.ErrNotFound)
	}
	for otherID, other := range d.roles {
		if otherID != id && other.Name == name {
			return nil, fmt.Errorf("%w: role %q", authservice.ErrAlreadyExists, name)
		}
	}
	role.Name = name
	d.roles[id] = role
	return &role, nil
}

func (d *MemoryDirectory) DeleteRole(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.roles[id]; !ok {
		return fmt.Errorf("%w: role", authservice.ErrNotFound)
	}
	delete(d.roles, id)
	delete(d.grants, id)
	return nil
}

func (d *MemoryDirectory) PermissionByID(_ context.Context, id string) (*authservice.PermissionRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	perm, ok := d.perms[id]
	if !ok {
		return nil, fmt.Errorf("%w: permission", authservice.ErrNotFound)
	}
	return &perm, nil
}

func (d *MemoryDirectory) PermissionByName(_ context.Context, name string) (*authservice.PermissionRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, perm := range d.perms {
		if perm.Name == name {
			p := perm
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: permission", authservice.ErrNotFound)
}

func (d *MemoryDirectory) CreatePermission(_ context.Context, name string) (*authservice.PermissionRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, perm := range d.perms {
		if perm.Name == name {
			return nil, fmt.Errorf("%w: permission %q", authservice.ErrAlreadyExists, name)
		}
	}
	perm := authservice.PermissionRecord{ID: uuid.NewString(), Name: name}
	d.perms[perm.ID] = perm
	return &perm, nil
}

func (d *MemoryDirectory) RenamePermission(_ context.Context, id, name string) (*authservice.PermissionRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	perm, ok := d.perms[id]
	if !ok {
		return nil, fmt.Errorf("%w: permission", authservice.ErrNotFound)
	}
	for otherID, other := range d.perms {
		if otherID != id && other.Name == name {
			return nil, fmt.Errorf("%w: permission %q", authservice.ErrAlreadyExists, name)
		}
	}
	perm.Name = name
	d.perms[id] = perm
	return &perm, nil
}

func (d *MemoryDirectory) DeletePermission(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.perms[id]; !ok {
		return fmt.Errorf("%w: permission", authservice.ErrNotFound)
	}
	delete(d.perms, id)
	for roleID, granted := range d.grants {
		d.grants[roleID] = remove(granted, id)
	}
	return nil
}

func (d *MemoryDirectory) Grant(_ context.Context, roleID, permissionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.roles[roleID]; !ok {
		return fmt.Errorf("%w: role", authservice.ErrNotFound)
	}
	if _, ok := d.perms[permissionID]; !ok {
		return fmt.Errorf("%w: permission", authservice.ErrNotFound)
	}
	for _, granted := range d.grants[roleID] {
		if granted == permissionID {
			return nil
		}
	}
	d.grants[roleID] = append(d.grants[roleID], permissionID)
	return nil
}

func (d *MemoryDirectory) Revoke(_ context.Context, roleID, permissionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.grants[roleID] = remove(d.grants[roleID], permissionID)
	return nil
}

func (d *MemoryDirectory) PermissionsByRole(_ context.Context, roleID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.roles[roleID]; !ok {
		return nil, fmt.Errorf("%w: role", authservice.ErrNotFound)
	}

	granted := d.grants[roleID]
	names := make([]string, 0, len(granted))
	for _, permissionID := range granted {
		if perm, ok := d.perms[permissionID]; ok {
			names = append(names, perm.Name)
		}
	}
	return names, nil
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
