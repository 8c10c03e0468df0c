package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/companyhub/company-api/internal/database"
	"github.com/companyhub/company-api/internal/user"
)

// ErrOTPNotFound is returned when no code exists for a user, or when the
// code was already consumed by a concurrent verification.
var ErrOTPNotFound = errors.New("otp not found")

// OTP is a one-time code issued to a pending user.
type OTP struct {
	ID        int64
	UserID    uuid.UUID
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Repository persists registration state: user rows and their one-time
// codes. The multi-row operations run in a single transaction so a user is
// never created without a code, or activated without consuming one.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateUserWithOTP inserts a new user together with its first one-time code.
func (r *Repository) CreateUserWithOTP(ctx context.Context, u *user.User, code string, expiresAt time.Time) (*user.User, error) {
	dbUser := &database.User{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		Address:      u.Address,
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbUser).
			Returning("*").
			Exec(ctx); err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				return user.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		dbOTP := &database.UserOTP{
			UserID:    dbUser.ID,
			Code:      code,
			ExpiresAt: expiresAt,
		}
		if _, err := tx.NewInsert().
			Model(dbOTP).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create otp: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user.FromDB(dbUser), nil
}

// ReplaceOTP invalidates every outstanding code for the user and issues a
// new one.
func (r *Repository) ReplaceOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.UserOTP)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete prior otps: %w", err)
		}

		dbOTP := &database.UserOTP{
			UserID:    userID,
			Code:      code,
			ExpiresAt: expiresAt,
		}
		if _, err := tx.NewInsert().
			Model(dbOTP).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create otp: %w", err)
		}

		return nil
	})
}

// LatestOTP returns the most recently issued code for the user.
func (r *Repository) LatestOTP(ctx context.Context, userID uuid.UUID) (*OTP, error) {
	dbOTP := new(database.UserOTP)
	err := r.db.NewSelect().
		Model(dbOTP).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to get latest otp: %w", err)
	}

	return &OTP{
		ID:        dbOTP.ID,
		UserID:    dbOTP.UserID,
		Code:      dbOTP.Code,
		ExpiresAt: dbOTP.ExpiresAt,
		CreatedAt: dbOTP.CreatedAt,
	}, nil
}

// ActivateUser flips the user from pending to active and deletes the
// consumed code. Both writes are guarded by affected-row checks inside one
// transaction, so two concurrent verifications cannot both succeed.
func (r *Repository) ActivateUser(ctx context.Context, userID uuid.UUID, otpID int64) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("status = ?", string(user.StatusActive)).
			Set("updated_at = NOW()").
			Where("id = ?", userID).
			Where("status = ?", string(user.StatusPending)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		} else if affected == 0 {
			return ErrOTPNotFound
		}

		result, err = tx.NewDelete().
			Model((*database.UserOTP)(nil)).
			Where("id = ?", otpID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete consumed otp: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		} else if affected == 0 {
			return ErrOTPNotFound
		}

		return nil
	})
}
