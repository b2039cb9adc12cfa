package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, password_hash, role, created_at, updated_at"

// Create hashes the password, inserts the user and returns it.  The email
// is stored lower-cased.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role) VALUES (?,?,?,?,?)",
		id, strings.TrimSpace(name), email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
