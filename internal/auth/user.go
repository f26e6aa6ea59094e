// Package auth provides local accounts, cookie sessions, and the HTTP
// middleware that gates authenticated pages.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/arkadyev/zametki/internal/db"
)

// Errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidUsername    = errors.New("username is required and must be at most 150 characters")
)

// Argon2id parameters (OWASP second recommendation: m=19456, t=2, p=1).
// Parameters are embedded in each hash string, so they can be tuned later
// without invalidating existing hashes.
const (
	argon2Time    = 2
	argon2Memory  = 19 * 1024 // ~19 MiB
	argon2Threads = 1
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

const maxUsernameLen = 150

// User represents a user account.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// UserService handles account registration and credential checks.
type UserService struct {
	db *db.DB
}

// NewUserService creates a new user service.
func NewUserService(database *db.DB) *UserService {
	return &UserService{db: database}
}

// Register creates a new account with username/password.
// Returns ErrAccountExists when the username is already taken; the unique
// index on users.username is the authoritative check.
func (s *UserService) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLen {
		return nil, ErrInvalidUsername
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.SQL().ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, hash, user.CreatedAt.Unix(),
	)
	if err != nil {
		if db.IsUniqueViolation(err, "users.username") {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Authenticate verifies username/password and returns the account.
// Returns ErrInvalidCredentials for both unknown usernames and wrong
// passwords so the response does not reveal which usernames exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		strings.TrimSpace(username),
	)

	var user User
	var hash string
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Username, &hash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetByID returns the account with the given id.
func (s *UserService) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE id = ?`, id,
	)

	var user User
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Username, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

// HashPassword hashes a password with argon2id.
// Encoded as: $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%x$%x",
		argon2.Version, argon2Memory, argon2Time, argon2Threads, salt, hash), nil
}

// VerifyPassword checks a password against an encoded argon2id hash using
// the parameters embedded in the hash string.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory uint32
	var iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("malformed hash parameters: %w", err)
	}

	var salt, want []byte
	if _, err := fmt.Sscanf(parts[4], "%x", &salt); err != nil {
		return false, fmt.Errorf("malformed salt: %w", err)
	}
	if _, err := fmt.Sscanf(parts[5], "%x", &want); err != nil {
		return false, fmt.Errorf("malformed hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
