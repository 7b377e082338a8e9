package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/model"
)

// CreateUser inserts a user exactly as given.
// Hashing the password is the caller's job (see service.AuthService).
// Returns apperror.ErrConflict if the username is already registered.
func (db *DB) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`,
		in.Username,
		in.Password,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", in.Username)
		}
		return nil, fmt.Errorf("sqlite: inserting user %s: %w", in.Username, err)
	}

	return &model.User{
		Username: in.Username,
		Password: in.Password,
	}, nil
}

// GetUserByUsername retrieves a user by username.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT username, password FROM users WHERE username = ?`,
		username,
	).Scan(&u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}

	return &u, nil
}
