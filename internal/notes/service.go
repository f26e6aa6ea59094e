package notes

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/arkadyev/zametki/internal/errs"
	"github.com/arkadyev/zametki/internal/slugs"
)

// ValidationError reports a rejected field value. The web layer re-renders
// the form with the message attached to the named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Service orchestrates note create/edit/delete: access decision first,
// then slug derivation and validation, then storage. No store mutation
// happens on any failure path.
type Service struct {
	store *Store
}

// NewService creates a note lifecycle service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store for read-side helpers.
func (s *Service) Store() *Store {
	return s.store
}

// Create makes a new note owned by authorID. An empty slug is derived
// from the title. A duplicate slug aborts the write and returns a
// *SlugConflictError carrying the offending value.
func (s *Service) Create(ctx context.Context, authorID string, p CreateParams) (*Note, error) {
	if authorID == "" {
		return nil, errs.New(errs.InvalidArgument, "author is required")
	}

	title, text, slug, err := normalizeFields(p.Title, p.Text, p.Slug)
	if err != nil {
		return nil, err
	}

	// Friendly submission-time check so the common case reports the
	// duplicate before hitting the storage constraint.
	inUse, err := s.store.SlugInUse(ctx, slug, "")
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, &SlugConflictError{Slug: slug}
	}

	// Under a race the UNIQUE index is the authority: the losing insert
	// comes back from the store as the same conflict error.
	return s.store.Create(ctx, authorID, title, text, slug)
}

// Get returns the note with the given slug if userID is its author.
// A missing note and another author's note are both reported as not found.
func (s *Service) Get(ctx context.Context, userID, slug string) (*Note, error) {
	note, err := s.resolveOwned(ctx, userID, slug, ActionDetail)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Edit replaces the note's title, text, and slug. An empty new slug is
// derived from the new title. The note's own slug never conflicts with
// itself; a slug belonging to any other note aborts the write with a
// *SlugConflictError and the stored note is left untouched.
func (s *Service) Edit(ctx context.Context, userID, slug string, p EditParams) (*Note, error) {
	note, err := s.resolveOwned(ctx, userID, slug, ActionEdit)
	if err != nil {
		return nil, err
	}

	title, text, newSlug, err := normalizeFields(p.Title, p.Text, p.Slug)
	if err != nil {
		return nil, err
	}

	inUse, err := s.store.SlugInUse(ctx, newSlug, note.ID)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, &SlugConflictError{Slug: newSlug}
	}

	return s.store.Update(ctx, note.ID, title, text, newSlug)
}

// Delete permanently removes the note with the given slug if userID is
// its author.
func (s *Service) Delete(ctx context.Context, userID, slug string) error {
	note, err := s.resolveOwned(ctx, userID, slug, ActionDelete)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, note.ID)
}

// List returns the caller's own notes, and only those, in stable order.
func (s *Service) List(ctx context.Context, userID string) ([]Note, error) {
	if userID == "" {
		return nil, errs.New(errs.InvalidArgument, "user is required")
	}
	return s.store.ListByAuthor(ctx, userID)
}

// resolveOwned loads a note by slug and applies the access decision for
// an ownership-gated action. Absent notes and other authors' notes are
// reported identically.
func (s *Service) resolveOwned(ctx context.Context, userID, slug string, action Action) (*Note, error) {
	note, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errs.CodeOf(err) == errs.NotFound {
			// Feed the decision a nil note so the outcome matches
			// the non-owner case exactly.
			note = nil
		} else {
			return nil, err
		}
	}

	switch ResolveAccess(userID, note, action) {
	case DecisionAllowed:
		return note, nil
	case DecisionRedirectToLogin:
		return nil, errs.New(errs.InvalidArgument, "authentication required")
	default:
		return nil, errs.New(errs.NotFound, "note not found")
	}
}

func normalizeFields(title, text, slug string) (string, string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", "", &ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", "", "", &ValidationError{Field: "title", Message: "title is too long"}
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = slugs.Generate(title)
		if slug == "" {
			return "", "", "", &ValidationError{Field: "slug", Message: "slug could not be derived from title, supply one explicitly"}
		}
	} else if !slugs.Valid(slug) {
		return "", "", "", &ValidationError{Field: "slug", Message: "slug may contain only letters, digits, hyphens and underscores"}
	}

	return title, text, slug, nil
}

// IsConflict reports whether err is a slug uniqueness conflict.
func IsConflict(err error) bool {
	var conflict *SlugConflictError
	return errors.As(err, &conflict)
}
