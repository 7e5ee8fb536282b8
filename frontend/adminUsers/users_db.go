package adminusers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"receiptstudio/frontend/login"
	"receiptstudio/infrastructure/argon"
	"receiptstudio/infrastructure/audit"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/rbac"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/models"
)

var (
	ErrUsernameRequired = apperrors.New(apperrors.CodeValidation, "username is required")
	ErrPasswordRequired = apperrors.New(apperrors.CodeValidation, "password is required")
	ErrInvalidRole      = apperrors.New(apperrors.CodeValidation, "role must be admin or cashier")
	ErrUsernameExists   = apperrors.New(apperrors.CodeConflict, "username already exists")
	ErrUserNotFound     = apperrors.New(apperrors.CodeNotFound, "user not found")
	ErrLastAdmin        = apperrors.New(apperrors.CodeConflict, "at least one admin must remain")
)

func LoadUsers(ctx context.Context, db *sqlite.DB) ([]UserView, error) {
	users := make([]UserView, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT u.id, u.username, u.role, u.created_at,
       (SELECT COUNT(1) FROM receipts r WHERE r.created_by = u.id) AS receipts
FROM users u
ORDER BY u.username COLLATE NOCASE ASC`).Scan(ctx, &users)
	})
	return users, err
}

func hashPassword(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrPasswordRequired
	}
	if err := login.ValidatePasswordPolicy(raw); err != nil {
		return "", err
	}
	return argon.CreateHash(raw, argon.DefaultParams)
}

// userView is the audit snapshot of a user. It never includes the hash.
type userView struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CreateUser adds a user. Usernames are unique regardless of case.
func CreateUser(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actorID int64, username, password, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	normalized := rbac.NormalizeRole(role)
	if normalized == "" {
		return models.User{}, ErrInvalidRole
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{Username: username, PasswordHash: hash, Role: normalized, CreatedAt: now, UpdatedAt: now}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("LOWER(username) = LOWER(?)", username).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrUsernameExists
		}
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return err
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, actorID, "user.create", "users", username, nil, userView{username, normalized})
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser changes a user's role and, when password is not blank, their password.
// The user's sessions are removed so the change applies on their next request.
func UpdateUser(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actorID, userID int64, role, password string) (models.User, error) {
	normalized := rbac.NormalizeRole(role)
	if normalized == "" {
		return models.User{}, ErrInvalidRole
	}
	hash := ""
	if strings.TrimSpace(password) != "" {
		var err error
		if hash, err = hashPassword(password); err != nil {
			return models.User{}, err
		}
	}

	var user models.User
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&user).Where("u.id = ?", userID).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		before := userView{user.Username, user.Role}
		if user.Role == rbac.RoleAdmin && normalized != rbac.RoleAdmin {
			admins, err := tx.NewSelect().Model((*models.User)(nil)).Where("role = ?", rbac.RoleAdmin).Count(ctx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		user.Role = normalized
		user.UpdatedAt = time.Now().UTC()
		columns := []string{"role", "updated_at"}
		if hash != "" {
			user.PasswordHash = hash
			columns = append(columns, "password_hash")
		}
		if _, err := tx.NewUpdate().Model(&user).Column(columns...).WherePK().Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Session)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
			return err
		}
		if auditSvc != nil {
			after := userView{user.Username, user.Role}
			return auditSvc.Write(ctx, tx, actorID, "user.update", "users", user.Username, before, after)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
