package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"libraryhub/internal/auth"
	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type NewUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      models.Role
}

// ProfileUpdate carries only the fields to change; nil means keep.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

const userColumns = `id, username, email, first_name, last_name, password_hash, role, profile_picture`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &u.ProfilePicture)
	return u, err
}

func CreateUser(ctx context.Context, db *sql.DB, in NewUser) (models.User, error) {
	if !in.Role.Valid() {
		return models.User{}, fmt.Errorf("create user: invalid role %q", in.Role)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO users(username, email, first_name, last_name, password_hash, role) VALUES(?,?,?,?,?,?)`,
		in.Username, in.Email, in.FirstName, in.LastName, hash, in.Role)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("create user %s: %w", in.Username, models.ErrDuplicate)
		}
		return models.User{}, fmt.Errorf("create user %s: %w", in.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return GetByID(ctx, db, id)
}

// VerifyLogin checks username and password. Unknown user and wrong password are indistinguishable.
func VerifyLogin(ctx context.Context, db *sql.DB, username, password string) (models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if auth.CheckPassword(u.PasswordHash, password) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func GetByID(ctx context.Context, db *sql.DB, id int64) (models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

func UpdateProfile(ctx context.Context, db *sql.DB, id int64, upd ProfileUpdate) (models.User, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.ProfilePicture != nil {
		add("profile_picture", *upd.ProfilePicture)
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return models.User{}, err
		}
		add("password_hash", hash)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return models.User{}, fmt.Errorf("update user %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.User{}, models.ErrNotFound
		}
	}
	return GetByID(ctx, db, id)
}
