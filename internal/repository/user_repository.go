package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campushub-api/internal/models"
)

// Accounts are read together with their school so login can refuse members
// of a suspended tenant without a second round trip.
const accountSelect = `SELECT u.id, u.school_id, u.email, u.password_hash, u.full_name, u.role, u.active,
	u.last_login, u.created_at, u.updated_at, s.name AS school_name, s.is_active AS school_active
	FROM users u LEFT JOIN schools s ON s.id = u.school_id`

// UserRepository reads and writes accounts.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail matches case-insensitively. A missing account surfaces as sql.ErrNoRows.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(u.email) = $1", strings.ToLower(strings.TrimSpace(email)))
}

// FindByID returns sql.ErrNoRows for unknown ids.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "u.id = $1", id)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, accountSelect+" WHERE "+where+" LIMIT 1", arg); err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin stamps a successful sign-in.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, ts)
	if err != nil {
		return fmt.Errorf("stamp last login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("stamp last login: account %s vanished", id)
	}
	return nil
}

// Create inserts an account. Emails are stored lower-cased so the unique
// index also rejects case variants.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if !user.Role.Valid() {
		return fmt.Errorf("create account: unknown role %q", user.Role)
	}
	if user.Role == models.RoleSuperAdmin {
		user.SchoolID = nil
	} else if user.Tenant() == "" {
		return fmt.Errorf("create account: role %s requires a school", user.Role)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const stmt = `INSERT INTO users (id, school_id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES (:id, :school_id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, user); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("create account: %s already registered: %w", user.Email, err)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}
