package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arkadyev/zametki/internal/testdb"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	d := testdb.New(t)
	users := NewUserService(d)
	ctx := context.Background()

	created, err := users.Register(ctx, "masha", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.ID == "" || created.Username != "masha" {
		t.Fatalf("unexpected user: %+v", created)
	}

	got, err := users.Authenticate(ctx, "masha", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("authenticated as %q, registered as %q", got.ID, created.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	d := testdb.New(t)
	users := NewUserService(d)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"empty username", "", "long enough pw", ErrInvalidUsername},
		{"blank username", "   ", "long enough pw", ErrInvalidUsername},
		{"username too long", strings.Repeat("x", 151), "long enough pw", ErrInvalidUsername},
		{"short password", "vanya", "1234567", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Register(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register(%q) error = %v, want %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	d := testdb.New(t)
	users := NewUserService(d)
	ctx := context.Background()

	if _, err := users.Register(ctx, "taken", "password123"); err != nil {
		t.Fatalf("register first: %v", err)
	}
	_, err := users.Register(ctx, "taken", "different pass")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	d := testdb.New(t)
	users := NewUserService(d)
	ctx := context.Background()

	if _, err := users.Register(ctx, "petya", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unknown usernames and wrong passwords fail identically.
	if _, err := users.Authenticate(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
	if _, err := users.Authenticate(ctx, "petya", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	d := testdb.New(t)
	users := NewUserService(d)
	ctx := context.Background()

	created, err := users.Register(ctx, "lena", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := users.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Username != "lena" {
		t.Fatalf("username = %q, want %q", got.Username, "lena")
	}

	if _, err := users.GetByID(ctx, "no-such-id"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	encoded, err := HashPassword("s3cret passphrase")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := VerifyPassword("s3cret passphrase", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("wrong", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=19456,t=2,p=1$aa$bb",
		"$argon2id$v=19$m=19456,t=2,p=1$aa",
	} {
		if _, err := VerifyPassword("pw", encoded); err == nil {
			t.Fatalf("malformed hash %q accepted", encoded)
		}
	}
}
