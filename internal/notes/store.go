package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arkadyev/zametki/internal/db"
	"github.com/arkadyev/zametki/internal/errs"
)

// Store persists notes in the shared database. The UNIQUE index on
// notes.slug makes create/update atomic with respect to slug uniqueness:
// of two concurrent writes racing on the same slug, the storage engine
// commits exactly one and the other surfaces here as a SlugConflictError.
type Store struct {
	db *db.DB
}

// NewStore creates a note store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new note and returns it. A duplicate slug yields a
// *SlugConflictError and leaves the store unchanged.
func (s *Store) Create(ctx context.Context, authorID, title, text, slug string) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        uuid.New().String(),
		Title:     title,
		Text:      text,
		Slug:      slug,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.SQL().ExecContext(ctx,
		`INSERT INTO notes (id, title, text, slug, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Title, note.Text, note.Slug, note.AuthorID,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		if db.IsUniqueViolation(err, "notes.slug") {
			return nil, &SlugConflictError{Slug: slug}
		}
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// GetBySlug returns the note with the given slug, or a coded not-found
// error. It never returns a zero Note for a missing slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Note, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT id, title, text, slug, author_id, created_at, updated_at
		 FROM notes WHERE slug = ?`, slug,
	)
	return scanNote(row)
}

// ListByAuthor returns all notes owned by authorID in stable creation
// order.
func (s *Store) ListByAuthor(ctx context.Context, authorID string) ([]Note, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT id, title, text, slug, author_id, created_at, updated_at
		 FROM notes WHERE author_id = ? ORDER BY created_at, id`, authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var result []Note
	for rows.Next() {
		var n Note
		var createdAt, updatedAt int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return result, nil
}

// Update replaces title, text, and slug of the note with the given id in
// a single statement, so a failed write mutates nothing. A duplicate slug
// yields a *SlugConflictError; updating a note to its own current slug is
// not a conflict.
func (s *Store) Update(ctx context.Context, id, title, text, slug string) (*Note, error) {
	now := time.Now().UTC()
	res, err := s.db.SQL().ExecContext(ctx,
		`UPDATE notes SET title = ?, text = ?, slug = ?, updated_at = ? WHERE id = ?`,
		title, text, slug, now.Unix(), id,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "notes.slug") {
			return nil, &SlugConflictError{Slug: slug}
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if affected == 0 {
		return nil, errs.New(errs.NotFound, "note not found")
	}
	return s.GetBySlug(ctx, slug)
}

// Delete removes the note with the given id. Deletion is permanent.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.SQL().ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected == 0 {
		return errs.New(errs.NotFound, "note not found")
	}
	return nil
}

// SlugInUse reports whether a slug is taken by a note other than
// excludingID. Pass excludingID == "" for creates. This is the form-level
// check; the UNIQUE index remains the authoritative one under races.
func (s *Store) SlugInUse(ctx context.Context, slug, excludingID string) (bool, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE slug = ? AND id != ?`, slug, excludingID,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

// Count returns the total number of notes across all authors.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

func scanNote(row *sql.Row) (*Note, error) {
	var n Note
	var createdAt, updatedAt int64
	if err := row.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "note not found")
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &n, nil
}
