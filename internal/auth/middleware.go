package auth

import (
	"context"
	"net/http"
	"net/url"
)

// LoginPath is where unauthenticated callers are sent. The original path
// travels along in the "next" query parameter so login can return there.
const LoginPath = "/login"

type contextKey string

const userIDKey contextKey = "userID"

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessions *SessionService
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(sessions *SessionService) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireAuth is middleware for pages that need an authenticated identity.
// Anonymous callers are redirected to the login page with the original
// path in the "next" parameter; they never reach the wrapped handler.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.authenticate(r)
		if !ok {
			RedirectToLogin(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth adds the user identity to context when a valid session is
// present and continues without one otherwise.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := m.authenticate(r); ok {
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (string, bool) {
	sessionID, err := GetFromRequest(r)
	if err != nil {
		return "", false
	}
	userID, err := m.sessions.Validate(r.Context(), sessionID)
	if err != nil {
		return "", false
	}
	return userID, true
}

// RedirectToLogin sends the caller to the login page with the originally
// requested path in the "next" parameter.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	params := url.Values{"next": {r.URL.RequestURI()}}
	http.Redirect(w, r, LoginPath+"?"+params.Encode(), http.StatusFound)
}

// GetUserID retrieves the user ID from the request context.
// Returns empty string if no user is authenticated.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// IsAuthenticated checks if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

// WithUserID returns a context carrying the given user identity.
// Intended for tests that call handlers directly.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
