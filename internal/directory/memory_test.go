package directory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	authservice "github.com/Vadimvill/auth-service"
)

func TestMemoryUserLifecycle(t *testing.T) {
	d := NewMemory()
	ctx := context.Background()

	created, err := d.CreateUser(ctx, authservice.UserRecord{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		IsActive: true,
		RoleID:   "role-1",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateUser did not assign an ID")
	}

	if _, err := d.CreateUser(ctx, authservice.UserRecord{Email: "ada@example.com"}); !errors.Is(err, authservice.ErrAlreadyExists) {
		t.Fatalf("duplicate email err = %v, want ErrAlreadyExists", err)
	}

	byEmail, err := d.UserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("UserByEmail returned %q, want %q", byEmail.ID, created.ID)
	}

	name := "Ada King"
	updated, err := d.UpdateUser(ctx, created.ID, authservice.UserPatch{FullName: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.FullName != "Ada King" || updated.Email != "ada@example.com" {
		t.Fatalf("patch applied wrong fields: %+v", updated)
	}

	if _, err := d.UserByID(ctx, "missing"); !errors.Is(err, authservice.ErrNotFound) {
		t.Fatalf("UserByID err = %v, want ErrNotFound", err)
	}
}

func TestMemoryGrantOrder(t *testing.T) {
	d := NewMemory()
	ctx := context.Background()

	role, err := d.CreateRole(ctx, "editor")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	var ids []string
	for _, name := range []string{"doc:write", "doc:read", "doc:delete"} {
		perm, err := d.CreatePermission(ctx, name)
		if err != nil {
			t.Fatalf("CreatePermission(%s): %v", name, err)
		}
		ids = append(ids, perm.ID)
		if err := d.Grant(ctx, role.ID, perm.ID); err != nil {
			t.Fatalf("Grant(%s): %v", name, err)
		}
	}

	// Re-granting must not duplicate or reorder.
	if err := d.Grant(ctx, role.ID, ids[0]); err != nil {
		t.Fatalf("repeat Grant: %v", err)
	}

	names, err := d.PermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("PermissionsByRole: %v", err)
	}
	want := []string{"doc:write", "doc:read", "doc:delete"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("PermissionsByRole = %v, want %v", names, want)
	}

	if err := d.Revoke(ctx, role.ID, ids[1]); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	names, err = d.PermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("PermissionsByRole: %v", err)
	}
	want = []string{"doc:write", "doc:delete"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("after revoke = %v, want %v", names, want)
	}
}

func TestMemoryDeletePermissionRemovesGrants(t *testing.T) {
	d := NewMemory()
	ctx := context.Background()

	role, _ := d.CreateRole(ctx, "viewer")
	perm, _ := d.CreatePermission(ctx, "doc:read")
	if err := d.Grant(ctx, role.ID, perm.ID); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := d.DeletePermission(ctx, perm.ID); err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}

	names, err := d.PermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("PermissionsByRole: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("grants survived permission deletion: %v", names)
	}
}

func TestMemoryPermissionsByRoleUnknownRole(t *testing.T) {
	d := NewMemory()
	ctx := context.Background()

	if _, err := d.PermissionsByRole(ctx, "no-such-role"); !errors.Is(err, authservice.ErrNotFound) {
		t.Fatalf("unknown role err = %v, want ErrNotFound", err)
	}

	role, _ := d.CreateRole(ctx, "viewer")
	names, err := d.PermissionsByRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("PermissionsByRole: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("new role has grants: %v", names)
	}
}

func TestMemoryRenameCollisions(t *testing.T) {
	d := NewMemory()
	ctx := context.Background()

	a, _ := d.CreateRole(ctx, "alpha")
	if _, err := d.CreateRole(ctx, "beta"); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := d.RenameRole(ctx, a.ID, "beta"); !errors.Is(err, authservice.ErrAlreadyExists) {
		t.Fatalf("RenameRole collision err = %v, want ErrAlreadyExists", err)
	}
	if _, err := d.RenameRole(ctx, "missing", "gamma"); !errors.Is(err, authservice.ErrNotFound) {
		t.Fatalf("RenameRole missing err = %v, want ErrNotFound", err)
	}
}
