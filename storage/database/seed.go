package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/user"
)

// seedPassword is the demo credential every seeded account starts with.
// Operators are expected to rotate it with `admin resetpassword`.
const seedPassword = "password123"

var seedUsers = []user.User{
	{Username: "admin", Name: "Administrator", Role: user.RoleAdmin, Email: "admin@classmate.local"},
	{Username: "mrs.simms", Name: "Mrs. Simms", Role: user.RoleTeacher, Email: "ksimms@washingtonchristian.org", Phone: "240-390-0429"},
	{Username: "parent1", Name: "Parent One", Role: user.RoleParent, Email: "parent1@email.com", Phone: "555-0001"},
	{Username: "parent2", Name: "Parent Two", Role: user.RoleParent, Email: "parent2@email.com", Phone: "555-0002"},
	{Username: "parent3", Name: "Parent Three", Role: user.RoleParent, Email: "parent3@email.com", Phone: "555-0003"},
}

// EnsureSeedData provisions the default accounts. Calling it any number of
// times yields the same five rows: the early admin check skips the bcrypt
// work on reruns, and ON CONFLICT keeps a partially seeded table safe.
func EnsureSeedData(ctx context.Context, db *sqlx.DB) error {
	var cnt int
	q := db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`)
	if err := db.GetContext(ctx, &cnt, q, "admin"); err != nil {
		return errors.Wrap(err, "checking for seeded admin")
	}
	if cnt > 0 {
		return nil
	}

	ins := db.Rebind(`
		INSERT INTO users (id, username, name, role, email, phone, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`)

	now := time.Now().UTC()
	for _, usr := range seedUsers {
		usr.ID = uuid.New().String()
		usr.CreatedAt = now
		if err := usr.SetPassword(seedPassword); err != nil {
			return errors.Wrap(err, "hashing seed password")
		}
		if _, err := db.ExecContext(ctx, ins,
			usr.ID, usr.Username, usr.Name, usr.Role, usr.Email, usr.Phone, usr.PasswordHash, usr.CreatedAt); err != nil {
			return errors.Wrapf(err, "seeding user %q", usr.Username)
		}
	}
	return nil
}
