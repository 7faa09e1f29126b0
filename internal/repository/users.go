package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

const userColumns = `id, username, password_hash, full_name, email, role, is_active, created_at, version`

func scanUser(row scanner) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user, err := scanUser(r.dbpool.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrap("get user", err)
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user, err := scanUser(r.dbpool.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	if err != nil {
		return nil, wrap("get user", err)
	}

	return user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			role = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{user.PasswordHash, user.FullName, user.Email, user.Role, user.IsActive, user.ID, user.Version}
	dst := []any{&user.Username, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return wrap("update user", err)
	}

	return nil
}

func (r *Repository) listUsers(ctx context.Context, op string, where string, args ...any) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where + ` ORDER BY id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	return users, nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return r.listUsers(ctx, "list users", "")
}

func (r *Repository) ListDoctors(ctx context.Context) ([]*domain.User, error) {
	return r.listUsers(ctx, "list doctors", `WHERE role <> $1 AND is_active`, domain.RoleAdmin)
}

func (r *Repository) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	return r.listUsers(ctx, "list admins", `WHERE role = $1 AND is_active`, domain.RoleAdmin)
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version); err != nil {
		return wrap("create user", err)
	}

	return nil
}
