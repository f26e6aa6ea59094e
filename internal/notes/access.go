package notes

// Action classifies what a request wants to do with notes.
type Action int

const (
	ActionList Action = iota
	ActionAdd
	ActionSuccess
	ActionDetail
	ActionEdit
	ActionDelete
)

// Decision is the outcome of an access check.
type Decision int

const (
	// DecisionRedirectToLogin: the caller is anonymous and the action
	// requires an identity.
	DecisionRedirectToLogin Decision = iota

	// DecisionNotFound: the note is absent, or the caller is not its
	// author. The two cases are deliberately indistinguishable so that
	// responses never reveal whether another user's note exists.
	DecisionNotFound

	// DecisionAllowed: the caller may proceed.
	DecisionAllowed
)

// ownershipRequired reports whether the action targets a specific note and
// therefore requires the caller to be its author.
func (a Action) ownershipRequired() bool {
	switch a {
	case ActionDetail, ActionEdit, ActionDelete:
		return true
	default:
		return false
	}
}

// ResolveAccess decides whether an identity may perform an action,
// evaluated before any side effect. note may be nil for actions that do
// not target a specific note, and for targeted actions when no note
// matched the requested slug.
func ResolveAccess(userID string, note *Note, action Action) Decision {
	if userID == "" {
		return DecisionRedirectToLogin
	}
	if !action.ownershipRequired() {
		return DecisionAllowed
	}
	if note == nil || note.AuthorID != userID {
		return DecisionNotFound
	}
	return DecisionAllowed
}
