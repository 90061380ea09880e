package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authservice "github.com/Vadimvill/auth-service"
)

// GormDirectory implements the three directory interfaces over a gorm
// database handle.
type GormDirectory struct {
	db *gorm.DB
}

var (
	_ authservice.UserDirectory       = (*GormDirectory)(nil)
	_ authservice.RoleDirectory       = (*GormDirectory)(nil)
	_ authservice.PermissionDirectory = (*GormDirectory)(nil)
)

func NewGorm(db *gorm.DB) (*GormDirectory, error) {
	if db == nil {
		return nil, errors.New("directory: nil gorm handle")
	}
	return &GormDirectory{db: db}, nil
}

// Migrate creates or updates the schema.
func (d *GormDirectory) Migrate() error {
	return d.db.AutoMigrate(
		&userModel{},
		&roleModel{},
		&permissionModel{},
		&rolePermissionModel{},
	)
}

func (d *GormDirectory) UserByID(ctx context.Context, id string) (*authservice.UserRecord, error) {
	var m userModel
	err := d.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate("user", err)
	}
	return userRecord(&m), nil
}

func (d *GormDirectory) UserByEmail(ctx context.Context, email string) (*authservice.UserRecord, error) {
	var m userModel
	err := d.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if err != nil {
		return nil, translate("user", err)
	}
	return userRecord(&m), nil
}

func (d *GormDirectory) CreateUser(ctx context.Context, user authservice.UserRecord) (*authservice.UserRecord, error) {
	var exists int64
	if err := d.db.WithContext(ctx).Model(&userModel{}).
		Where("email = ?", user.Email).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("directory: count users: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: email %q", authservice.ErrAlreadyExists, user.Email)
	}

	m := userModel{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		IsActive:     user.IsActive,
		PasswordHash: user.PasswordHash,
		RoleID:       user.RoleID,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := d.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("directory: create user: %w", err)
	}
	return userRecord(&m), nil
}

func (d *GormDirectory) UpdateUser(ctx context.Context, id string, patch authservice.UserPatch) (*authservice.UserRecord, error) {
	updates := map[string]any{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.PasswordHash != nil {
		updates["password_hash"] = *patch.PasswordHash
	}
	if patch.RoleID != nil {
		updates["role_id"] = *patch.RoleID
	}

	var m userModel
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translate("user", err)
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()
		if err := tx.Model(&m).Updates(updates).Error; err != nil {
			return fmt.Errorf("directory: update user: %w", err)
		}
		return tx.First(&m, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return userRecord(&m), nil
}

func (d *GormDirectory) RoleByID(ctx context.Context, id string) (*authservice.RoleRecord, error) {
	var m roleModel
	if err := d.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate("role", err)
	}
	return &authservice.RoleRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) RoleByName(ctx context.Context, name string) (*authservice.RoleRecord, error) {
	var m roleModel
	if err := d.db.WithContext(ctx).First(&m, "name = ?", name).Error; err != nil {
		return nil, translate("role", err)
	}
	return &authservice.RoleRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) CreateRole(ctx context.Context, name string) (*authservice.RoleRecord, error) {
	var exists int64
	if err := d.db.WithContext(ctx).Model(&roleModel{}).
		Where("name = ?", name).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("directory: count roles: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: role %q", authservice.ErrAlreadyExists, name)
	}

	m := roleModel{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	if err := d.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("directory: create role: %w", err)
	}
	return &authservice.RoleRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) RenameRole(ctx context.Context, id, name string) (*authservice.RoleRecord, error) {
	var m roleModel
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translate("role", err)
		}
		if err := tx.Model(&m).Update("name", name).Error; err != nil {
			return fmt.Errorf("directory: rename role: %w", err)
		}
		m.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &authservice.RoleRecord{ID: m.ID, Name: m.Name}, nil
}

// DeleteRole removes the role and its grants. Users still pointing at
// the role keep the dangling ID; their permission set resolves empty.
func (d *GormDirectory) DeleteRole(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&roleModel{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("directory: delete role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: role %q", authservice.ErrNotFound, id)
		}
		return tx.Delete(&rolePermissionModel{}, "role_id = ?", id).Error
	})
}

func (d *GormDirectory) PermissionByID(ctx context.Context, id string) (*authservice.PermissionRecord, error) {
	var m permissionModel
	if err := d.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate("permission", err)
	}
	return &authservice.PermissionRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) PermissionByName(ctx context.Context, name string) (*authservice.PermissionRecord, error) {
	var m permissionModel
	if err := d.db.WithContext(ctx).First(&m, "name = ?", name).Error; err != nil {
		return nil, translate("permission", err)
	}
	return &authservice.PermissionRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) CreatePermission(ctx context.Context, name string) (*authservice.PermissionRecord, error) {
	var exists int64
	if err := d.db.WithContext(ctx).Model(&permissionModel{}).
		Where("name = ?", name).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("directory: count permissions: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: permission %q", authservice.ErrAlreadyExists, name)
	}

	m := permissionModel{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	if err := d.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("directory: create permission: %w", err)
	}
	return &authservice.PermissionRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) RenamePermission(ctx context.Context, id, name string) (*authservice.PermissionRecord, error) {
	var m permissionModel
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return translate("permission", err)
		}
		if err := tx.Model(&m).Update("name", name).Error; err != nil {
			return fmt.Errorf("directory: rename permission: %w", err)
		}
		m.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &authservice.PermissionRecord{ID: m.ID, Name: m.Name}, nil
}

func (d *GormDirectory) DeletePermission(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&permissionModel{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("directory: delete permission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: permission %q", authservice.ErrNotFound, id)
		}
		return tx.Delete(&rolePermissionModel{}, "permission_id = ?", id).Error
	})
}

func (d *GormDirectory) Grant(ctx context.Context, roleID, permissionID string) error {
	var exists int64
	if err := d.db.WithContext(ctx).Model(&rolePermissionModel{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&exists).Error; err != nil {
		return fmt.Errorf("directory: count grants: %w", err)
	}
	if exists > 0 {
		return nil
	}

	m := rolePermissionModel{RoleID: roleID, PermissionID: permissionID, CreatedAt: time.Now()}
	if err := d.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("directory: grant: %w", err)
	}
	return nil
}

func (d *GormDirectory) Revoke(ctx context.Context, roleID, permissionID string) error {
	err := d.db.WithContext(ctx).
		Delete(&rolePermissionModel{}, "role_id = ? AND permission_id = ?", roleID, permissionID).Error
	if err != nil {
		return fmt.Errorf("directory: revoke: %w", err)
	}
	return nil
}

func (d *GormDirectory) PermissionsByRole(ctx context.Context, roleID string) ([]string, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&roleModel{}).
		Where("id = ?", roleID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("directory: permissions by role: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: role %q", authservice.ErrNotFound, roleID)
	}

	var names []string
	err := d.db.WithContext(ctx).Model(&rolePermissionModel{}).
		Select("permissions.name").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ?", roleID).
		Order("role_permissions.created_at").
		Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("directory: permissions by role: %w", err)
	}
	return names, nil
}

func userRecord(m *userModel) *authservice.UserRecord {
	return &authservice.UserRecord{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		IsActive:     m.IsActive,
		PasswordHash: m.PasswordHash,
		RoleID:       m.RoleID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func translate(kind string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", authservice.ErrNotFound, kind)
	}
	return fmt.Errorf("directory: %s lookup: %w", kind, err)
}
