package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arkadyev/zametki/internal/auth"
	"github.com/arkadyev/zametki/internal/errs"
	"github.com/arkadyev/zametki/internal/notes"
	"github.com/arkadyev/zametki/internal/obs"
	"github.com/arkadyev/zametki/internal/ratelimit"
)

// Handler serves the HTML pages: the landing page, the note pages, and
// the account pages.
type Handler struct {
	renderer *Renderer
	notes    *notes.Service
	users    *auth.UserService
	sessions *auth.SessionService
}

// NewHandler creates a web handler.
func NewHandler(renderer *Renderer, noteService *notes.Service, users *auth.UserService, sessions *auth.SessionService) *Handler {
	return &Handler{
		renderer: renderer,
		notes:    noteService,
		users:    users,
		sessions: sessions,
	}
}

// RegisterRoutes mounts all pages on mux. Note pages require a session;
// account pages are public. authLimiter throttles credential submissions.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware, authLimiter *ratelimit.Limiter) {
	mux.Handle("GET /{$}", mw.OptionalAuth(http.HandlerFunc(h.Home)))

	mux.Handle("GET /notes", mw.RequireAuth(http.HandlerFunc(h.List)))
	mux.Handle("GET /add", mw.RequireAuth(http.HandlerFunc(h.AddForm)))
	mux.Handle("POST /add", mw.RequireAuth(http.HandlerFunc(h.AddSubmit)))
	mux.Handle("GET /note/{slug}", mw.RequireAuth(http.HandlerFunc(h.Detail)))
	mux.Handle("GET /edit/{slug}", mw.RequireAuth(http.HandlerFunc(h.EditForm)))
	mux.Handle("POST /edit/{slug}", mw.RequireAuth(http.HandlerFunc(h.EditSubmit)))
	mux.Handle("GET /delete/{slug}", mw.RequireAuth(http.HandlerFunc(h.DeleteConfirm)))
	mux.Handle("POST /delete/{slug}", mw.RequireAuth(http.HandlerFunc(h.DeleteSubmit)))
	mux.Handle("GET /done", mw.RequireAuth(http.HandlerFunc(h.Done)))

	mux.Handle("GET /login", mw.OptionalAuth(http.HandlerFunc(h.LoginForm)))
	mux.Handle("POST /login", ratelimit.Middleware(authLimiter, http.HandlerFunc(h.LoginSubmit)))
	mux.Handle("GET /signup", mw.OptionalAuth(http.HandlerFunc(h.SignupForm)))
	mux.Handle("POST /signup", ratelimit.Middleware(authLimiter, http.HandlerFunc(h.SignupSubmit)))
	mux.Handle("POST /logout", mw.OptionalAuth(http.HandlerFunc(h.Logout)))
}

// pageData is the common payload every page template receives.
type pageData struct {
	Title string
	User  *auth.User
}

// noteFormData drives the shared add/edit form template.
type noteFormData struct {
	pageData
	Note        *notes.Note
	FormTitle   string
	FormText    string
	FormSlug    string
	FieldErrors map[string]string
	IsEdit      bool
	EditSlug    string
}

type authFormData struct {
	pageData
	Username string
	Next     string
	Error    string
}

func (h *Handler) currentUser(r *http.Request) *auth.User {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		return nil
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, code int, name string, data interface{}) {
	if err := h.renderer.RenderStatus(w, code, name, data); err != nil {
		obs.From(r.Context()).Error("render_failed", "template", name, "error", err.Error())
	}
}

// Home serves the landing page. It renders for everyone, signed in or not.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", pageData{
		Title: "Заметки",
		User:  h.currentUser(r),
	})
}

// List shows the caller's own notes and nobody else's.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	list, err := h.notes.List(r.Context(), userID)
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "notes/list.html", struct {
		pageData
		Notes []notes.Note
	}{
		pageData: pageData{Title: "Мои заметки", User: h.currentUser(r)},
		Notes:    list,
	})
}

// AddForm shows an empty note form.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "notes/form.html", noteFormData{
		pageData: pageData{Title: "Новая заметка", User: h.currentUser(r)},
	})
}

// AddSubmit creates a note. A rejected field value, a taken slug
// included, re-renders the form with the value preserved and the message
// attached to the field. Nothing is stored on a rejected submission.
func (h *Handler) AddSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "malformed form submission")
		return
	}

	params := notes.CreateParams{
		Title: r.PostFormValue("title"),
		Text:  r.PostFormValue("text"),
		Slug:  r.PostFormValue("slug"),
	}

	userID := auth.GetUserID(r.Context())
	note, err := h.notes.Create(r.Context(), userID, params)
	if err != nil {
		if fieldErrors, ok := formErrors(err); ok {
			h.render(w, r, http.StatusOK, "notes/form.html", noteFormData{
				pageData:    pageData{Title: "Новая заметка", User: h.currentUser(r)},
				FormTitle:   params.Title,
				FormText:    params.Text,
				FormSlug:    params.Slug,
				FieldErrors: fieldErrors,
			})
			return
		}
		h.serveError(w, r, err)
		return
	}

	obs.From(r.Context()).Info("note_created", "slug", note.Slug)
	http.Redirect(w, r, "/done", http.StatusFound)
}

// Detail shows a single note. Someone else's note and a missing note get
// the same 404.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), auth.GetUserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "notes/detail.html", struct {
		pageData
		Note *notes.Note
	}{
		pageData: pageData{Title: note.Title, User: h.currentUser(r)},
		Note:     note,
	})
}

// EditForm shows the note form pre-filled with the note's current fields.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	note, err := h.notes.Get(r.Context(), auth.GetUserID(r.Context()), slug)
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "notes/form.html", noteFormData{
		pageData:  pageData{Title: "Редактирование заметки", User: h.currentUser(r)},
		Note:      note,
		FormTitle: note.Title,
		FormText:  note.Text,
		FormSlug:  note.Slug,
		IsEdit:    true,
		EditSlug:  slug,
	})
}

// EditSubmit applies an edit. Rejections re-render the form with the
// submitted values; the stored note keeps its previous fields.
func (h *Handler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "malformed form submission")
		return
	}

	slug := r.PathValue("slug")
	params := notes.EditParams{
		Title: r.PostFormValue("title"),
		Text:  r.PostFormValue("text"),
		Slug:  r.PostFormValue("slug"),
	}

	userID := auth.GetUserID(r.Context())
	note, err := h.notes.Edit(r.Context(), userID, slug, params)
	if err != nil {
		if fieldErrors, ok := formErrors(err); ok {
			h.render(w, r, http.StatusOK, "notes/form.html", noteFormData{
				pageData:    pageData{Title: "Редактирование заметки", User: h.currentUser(r)},
				FormTitle:   params.Title,
				FormText:    params.Text,
				FormSlug:    params.Slug,
				FieldErrors: fieldErrors,
				IsEdit:      true,
				EditSlug:    slug,
			})
			return
		}
		h.serveError(w, r, err)
		return
	}

	obs.From(r.Context()).Info("note_updated", "slug", note.Slug)
	http.Redirect(w, r, "/done", http.StatusFound)
}

// DeleteConfirm shows the confirmation page. Nothing is removed until
// the confirmation is posted.
func (h *Handler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), auth.GetUserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "notes/delete.html", struct {
		pageData
		Note *notes.Note
	}{
		pageData: pageData{Title: "Удаление заметки", User: h.currentUser(r)},
		Note:     note,
	})
}

// DeleteSubmit permanently removes the note.
func (h *Handler) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if err := h.notes.Delete(r.Context(), auth.GetUserID(r.Context()), slug); err != nil {
		h.serveError(w, r, err)
		return
	}

	obs.From(r.Context()).Info("note_deleted", "slug", slug)
	http.Redirect(w, r, "/done", http.StatusFound)
}

// Done is the page every successful note write lands on.
func (h *Handler) Done(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "notes/success.html", pageData{
		Title: "Готово",
		User:  h.currentUser(r),
	})
}

// LoginForm shows the login page. Already signed-in callers go straight
// to their notes.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "auth/login.html", authFormData{
		pageData: pageData{Title: "Вход"},
		Next:     sanitizeNext(r.URL.Query().Get("next")),
	})
}

// LoginSubmit checks credentials and starts a session. The "next"
// parameter, when it names a local path, is where the caller returns.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "malformed form submission")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	next := sanitizeNext(r.PostFormValue("next"))

	user, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.render(w, r, http.StatusOK, "auth/login.html", authFormData{
				pageData: pageData{Title: "Вход"},
				Username: username,
				Next:     next,
				Error:    "Неверное имя пользователя или пароль.",
			})
			return
		}
		h.serveError(w, r, err)
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.serveError(w, r, err)
		return
	}
	h.sessions.SetCookie(w, sessionID)

	obs.From(r.Context()).Info("user_logged_in", "username", user.Username)
	if next == "" {
		next = "/notes"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// SignupForm shows the registration page.
func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if auth.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/notes", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "auth/signup.html", authFormData{
		pageData: pageData{Title: "Регистрация"},
	})
}

// SignupSubmit registers an account and signs the new user in.
func (h *Handler) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "malformed form submission")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.users.Register(r.Context(), username, password)
	if err != nil {
		if msg, ok := signupErrorMessage(err); ok {
			h.render(w, r, http.StatusOK, "auth/signup.html", authFormData{
				pageData: pageData{Title: "Регистрация"},
				Username: username,
				Error:    msg,
			})
			return
		}
		h.serveError(w, r, err)
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.serveError(w, r, err)
		return
	}
	h.sessions.SetCookie(w, sessionID)

	obs.From(r.Context()).Info("user_registered", "username", user.Username)
	http.Redirect(w, r, "/notes", http.StatusFound)
}

// Logout ends the session and shows the logged-out page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := auth.GetFromRequest(r); err == nil {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			obs.From(r.Context()).Error("logout_failed", "error", err.Error())
		}
	}
	auth.ClearCookie(w)

	h.render(w, r, http.StatusOK, "auth/logged_out.html", pageData{
		Title: "Вы вышли",
	})
}

// serveError maps an error to a status page. Coded errors choose their
// status; everything else is a 500 with the details kept in the log.
func (h *Handler) serveError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.HTTPStatus(errs.CodeOf(err))
	if code >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("request_failed", "error", err.Error())
	}
	h.renderer.RenderError(w, code, errs.MessageOf(err))
}

// formErrors classifies an error from the note service as a form-level
// rejection. A taken slug lands on the slug field with the full warning
// text.
func formErrors(err error) (map[string]string, bool) {
	var conflict *notes.SlugConflictError
	if errors.As(err, &conflict) {
		return map[string]string{"slug": conflict.Error()}, true
	}
	var invalid *notes.ValidationError
	if errors.As(err, &invalid) {
		return map[string]string{invalid.Field: invalid.Message}, true
	}
	return nil, false
}

func signupErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, auth.ErrAccountExists):
		return "Пользователь с таким именем уже существует.", true
	case errors.Is(err, auth.ErrWeakPassword):
		return "Пароль должен содержать не менее 8 символов.", true
	case errors.Is(err, auth.ErrInvalidUsername):
		return "Укажите имя пользователя длиной не более 150 символов.", true
	}
	return "", false
}

// sanitizeNext keeps only local redirect targets. Anything that could
// leave the site is dropped.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
