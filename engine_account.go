package authservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vadimvill/auth-service/internal/audit"
)

// Register creates a user account. The plain password is hashed
// before the directory sees it; the caller-supplied role must exist.
func (e *Engine) Register(ctx context.Context, in CreateUserInput) (*UserRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := e.roles.RoleByID(ctx, in.RoleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, in.RoleID)
		}
		return nil, fmt.Errorf("register: lookup role: %w", err)
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	now := time.Now()
	user, err := e.users.CreateUser(ctx, UserRecord{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        normalizeEmail(in.Email),
		IsActive:     in.IsActive,
		PasswordHash: hash,
		RoleID:       in.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	e.metrics.Inc(MetricAccountCreated)
	e.emit(ctx, audit.ActionRegister, user.ID, true, nil, nil)
	return user, nil
}

// GetUser returns the user with id.
func (e *Engine) GetUser(ctx context.Context, id string) (*UserRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.users.UserByID(ctx, id)
}

// UpdateUser applies patch to the user with id. A new plain password
// in the patch is not supported here; use ChangePassword.
func (e *Engine) UpdateUser(ctx context.Context, id string, patch UserPatch) (*UserRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if !validEmail(email) {
			return nil, fmt.Errorf("%w: email", ErrInvalidInput)
		}
		patch.Email = &email
	}
	if patch.RoleID != nil {
		if _, err := e.roles.RoleByID(ctx, *patch.RoleID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, *patch.RoleID)
			}
			return nil, fmt.Errorf("update user: lookup role: %w", err)
		}
	}

	user, err := e.users.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	e.emit(ctx, audit.ActionUserAdmin, id, true, nil, map[string]string{"change": "update"})
	return user, nil
}

// ChangePassword sets a new password after verifying the current one.
// The live session is revoked so the change takes effect everywhere.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	user, err := e.users.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := e.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: verify: %w", err)
	}
	if !ok {
		return ErrUnauthenticated
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if _, err := e.users.UpdateUser(ctx, userID, UserPatch{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if err := e.sessions.Revoke(ctx, userID); err != nil {
		return err
	}

	e.emit(ctx, audit.ActionUserAdmin, userID, true, nil, map[string]string{"change": "password"})
	return nil
}

// DeactivateUser marks the account inactive and revokes its session.
// Deactivating an already inactive account is a no-op.
func (e *Engine) DeactivateUser(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	inactive := false
	if _, err := e.users.UpdateUser(ctx, userID, UserPatch{IsActive: &inactive}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if err := e.sessions.Revoke(ctx, userID); err != nil {
		return err
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.emit(ctx, audit.ActionUserAdmin, userID, true, nil, map[string]string{"change": "deactivate"})
	return nil
}

const minPasswordLength = 8

func validateRegistration(in CreateUserInput) error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("%w: full name", ErrInvalidInput)
	}
	if !validEmail(normalizeEmail(in.Email)) {
		return fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password too short", ErrInvalidInput)
	}
	if in.RoleID == "" {
		return fmt.Errorf("%w: role", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
