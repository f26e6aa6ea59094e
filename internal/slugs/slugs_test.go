package slugs

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestGenerate(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"cyrillic title", "Заголовок записи", "zagolovok-zapisi"},
		{"latin with spaces", "My First Note", "my-first-note"},
		{"punctuation stripped", "Hello, World!", "hello-world"},
		{"mixed scripts", "Note Запись 42", "note-zapis-42"},
		{"already a slug", "plain-slug", "plain-slug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Generate(tc.title); got != tc.want {
				t.Fatalf("Generate(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestGenerate_TruncatesLongTitles(t *testing.T) {
	title := strings.Repeat("word ", 60)
	got := Generate(title)
	if len(got) > MaxLength {
		t.Fatalf("slug length %d exceeds %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("truncated slug should not end with a hyphen: %q", got)
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		slug string
		want bool
	}{
		{"slug_note", true},
		{"s1", true},
		{"with-hyphen-123", true},
		{"", false},
		{"has space", false},
		{"запись", false},
		{"semi;colon", false},
		{strings.Repeat("a", MaxLength), true},
		{strings.Repeat("a", MaxLength+1), false},
	}
	for _, tc := range cases {
		if got := Valid(tc.slug); got != tc.want {
			t.Fatalf("Valid(%q) = %v, want %v", tc.slug, got, tc.want)
		}
	}
}

func TestGenerate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringMatching(`[A-Za-zА-Яа-я0-9 .,!]{1,200}`).Draw(t, "title")
		s := Generate(title)

		// Deterministic for the same input.
		if again := Generate(title); again != s {
			t.Fatalf("Generate not deterministic: %q vs %q", s, again)
		}

		if s == "" {
			return // titles of pure punctuation can normalize to nothing
		}

		// Every derived slug passes validation.
		if !Valid(s) {
			t.Fatalf("derived slug %q fails Valid", s)
		}

		// Derivation is idempotent: a slug re-derives to itself.
		if Generate(s) != s {
			t.Fatalf("Generate(%q) = %q, not idempotent", s, Generate(s))
		}
	})
}
