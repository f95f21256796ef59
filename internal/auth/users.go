package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/store"
)

var (
	// ErrEmailTaken is returned when registering an email already in use
	// for the role.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on login with an unknown email or
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore persists professor and student accounts in Postgres.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func tableFor(role string) (string, error) {
	switch role {
	case RoleProfessor:
		return "professors", nil
	case RoleStudent:
		return "students", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserStore) Register(ctx context.Context, role, name, email, password string) (Identity, error) {
	table, err := tableFor(role)
	if err != nil {
		return Identity{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`,
		id, name, email, string(hash))
	if err != nil {
		if store.IsUniqueViolation(err, "") {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, store.MapError(err)
	}
	return Identity{ID: id, Role: role, Name: name, Email: email}, nil
}

// Authenticate checks email and password for the role and returns the
// matching identity.
func (s *UserStore) Authenticate(ctx context.Context, role, email, password string) (Identity, error) {
	table, err := tableFor(role)
	if err != nil {
		return Identity{}, err
	}
	var (
		ident Identity
		hash  string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM `+table+` WHERE email = $1`, email)
	if err := row.Scan(&ident.ID, &ident.Name, &ident.Email, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, store.MapError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	ident.Role = role
	return ident, nil
}
