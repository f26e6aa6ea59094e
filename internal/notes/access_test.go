package notes

import "testing"

func TestResolveAccess(t *testing.T) {
	owned := &Note{ID: "n1", Slug: "mine", AuthorID: "owner"}

	tests := []struct {
		name   string
		userID string
		note   *Note
		action Action
		want   Decision
	}{
		{"anonymous list", "", nil, ActionList, DecisionRedirectToLogin},
		{"anonymous add", "", nil, ActionAdd, DecisionRedirectToLogin},
		{"anonymous success", "", nil, ActionSuccess, DecisionRedirectToLogin},
		{"anonymous detail", "", owned, ActionDetail, DecisionRedirectToLogin},
		{"anonymous edit", "", owned, ActionEdit, DecisionRedirectToLogin},
		{"anonymous delete", "", owned, ActionDelete, DecisionRedirectToLogin},

		{"owner list", "owner", nil, ActionList, DecisionAllowed},
		{"owner add", "owner", nil, ActionAdd, DecisionAllowed},
		{"owner success", "owner", nil, ActionSuccess, DecisionAllowed},
		{"owner detail", "owner", owned, ActionDetail, DecisionAllowed},
		{"owner edit", "owner", owned, ActionEdit, DecisionAllowed},
		{"owner delete", "owner", owned, ActionDelete, DecisionAllowed},

		{"stranger detail", "reader", owned, ActionDetail, DecisionNotFound},
		{"stranger edit", "reader", owned, ActionEdit, DecisionNotFound},
		{"stranger delete", "reader", owned, ActionDelete, DecisionNotFound},
		{"stranger list is own view", "reader", nil, ActionList, DecisionAllowed},

		{"missing note detail", "owner", nil, ActionDetail, DecisionNotFound},
		{"missing note edit", "owner", nil, ActionEdit, DecisionNotFound},
		{"missing note delete", "owner", nil, ActionDelete, DecisionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAccess(tt.userID, tt.note, tt.action); got != tt.want {
				t.Fatalf("ResolveAccess(%q, %v, %v) = %v, want %v", tt.userID, tt.note, tt.action, got, tt.want)
			}
		})
	}
}

func TestStrangerAndMissingNoteAreIndistinguishable(t *testing.T) {
	owned := &Note{ID: "n1", Slug: "mine", AuthorID: "owner"}

	for _, action := range []Action{ActionDetail, ActionEdit, ActionDelete} {
		stranger := ResolveAccess("reader", owned, action)
		missing := ResolveAccess("reader", nil, action)
		if stranger != missing {
			t.Fatalf("action %v: stranger decision %v differs from missing-note decision %v", action, stranger, missing)
		}
		if stranger != DecisionNotFound {
			t.Fatalf("action %v: expected not-found decision, got %v", action, stranger)
		}
	}
}
