package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`
		INSERT INTO users (id, username, name, role, email, phone, parent_id, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Username, usr.Name, usr.Role, usr.Email, usr.Phone, usr.ParentID, usr.PasswordHash, usr.CreatedAt.UTC())
	if err != nil {
		return user.User{}, trapConstraintErr(err, user.ErrUsernameExists, nil, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	q := repo.db.Rebind(`SELECT * FROM users WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &usr, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return usr, nil
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var usr user.User
	q := repo.db.Rebind(`SELECT * FROM users WHERE username = ?`)
	if err := repo.db.GetContext(ctx, &usr, q, username); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by username")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	q := `SELECT * FROM users ORDER BY created_at, username`
	if err := repo.db.SelectContext(ctx, &users, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) QueryUsersByRole(ctx context.Context, role string) ([]user.User, error) {
	users := make([]user.User, 0)
	q := repo.db.Rebind(`SELECT * FROM users WHERE role = ? ORDER BY username`)
	if err := repo.db.SelectContext(ctx, &users, q, role); err != nil {
		return nil, errors.Wrap(err, "querying users by role")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`
		UPDATE users
		SET username = ?, name = ?, role = ?, email = ?, phone = ?, parent_id = ?, password_hash = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		usr.Username, usr.Name, usr.Role, usr.Email, usr.Phone, usr.ParentID, usr.PasswordHash, usr.ID)
	if err != nil {
		return user.User{}, trapConstraintErr(err, user.ErrUsernameExists, nil, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "binding user IDs")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
