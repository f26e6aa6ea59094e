// Package notes implements the note store, the ownership-gated access
// decision, and the lifecycle service that ties them together.
package notes

import (
	"time"
)

// SlugWarning is appended to the offending slug value when a write would
// violate slug uniqueness. The exact text is load-bearing: existing
// clients and fixtures match it byte for byte.
const SlugWarning = " - строки такого вида уже существуют, придумайте уникальное значение!"

// MaxTitleLength is the maximum note title length in characters.
const MaxTitleLength = 200

// Note is a user's note. ID and AuthorID are immutable after creation;
// Slug is globally unique and may be changed only by the author.
type Note struct {
	ID        string
	Title     string
	Text      string
	Slug      string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams contains parameters for creating a note.
// Slug is optional; when empty it is derived from Title.
type CreateParams struct {
	Title string
	Text  string
	Slug  string
}

// EditParams contains the replacement field values for an edit.
// Slug is optional; when empty it is derived from the new Title.
type EditParams struct {
	Title string
	Text  string
	Slug  string
}

// SlugConflictError reports that a write was rejected because the slug is
// already in use by another note.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return e.Slug + SlugWarning
}
