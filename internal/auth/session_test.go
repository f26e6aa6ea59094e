package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arkadyev/zametki/internal/db"
	"github.com/arkadyev/zametki/internal/testdb"
)

func registerTestUser(t *testing.T, d *db.DB, username string) string {
	t.Helper()
	user, err := NewUserService(d).Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user.ID
}

func TestSessionCreateAndValidate(t *testing.T) {
	d := testdb.New(t)
	sessions := NewSessionService(d, time.Hour)
	ctx := context.Background()
	userID := registerTestUser(t, d, "masha")

	sessionID, err := sessions.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sessionID == "" {
		t.Fatal("empty session id")
	}

	got, err := sessions.Validate(ctx, sessionID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != userID {
		t.Fatalf("validated user = %q, want %q", got, userID)
	}
}

func TestSessionValidateUnknown(t *testing.T) {
	d := testdb.New(t)
	sessions := NewSessionService(d, time.Hour)

	_, err := sessions.Validate(context.Background(), "bogus")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	d := testdb.New(t)
	// Negative duration makes the session expired on arrival.
	sessions := NewSessionService(d, -time.Second)
	ctx := context.Background()
	userID := registerTestUser(t, d, "petya")

	sessionID, err := sessions.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := sessions.Validate(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session validated: %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	d := testdb.New(t)
	sessions := NewSessionService(d, time.Hour)
	ctx := context.Background()
	userID := registerTestUser(t, d, "lena")

	sessionID, err := sessions.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := sessions.Delete(ctx, sessionID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := sessions.Validate(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("deleted session validated: %v", err)
	}
}

func TestSessionCleanup(t *testing.T) {
	d := testdb.New(t)
	ctx := context.Background()
	userID := registerTestUser(t, d, "vanya")

	expired := NewSessionService(d, -time.Second)
	live := NewSessionService(d, time.Hour)

	deadID, err := expired.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create expired session: %v", err)
	}
	liveID, err := live.Create(ctx, userID)
	if err != nil {
		t.Fatalf("create live session: %v", err)
	}

	if err := live.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := d.SQL().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE session_id = ?`, deadID,
	).Scan(&count); err != nil {
		t.Fatalf("query sessions: %v", err)
	}
	if count != 0 {
		t.Fatal("expired session survived cleanup")
	}

	if _, err := live.Validate(ctx, liveID); err != nil {
		t.Fatalf("live session removed by cleanup: %v", err)
	}
}
