package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/auth"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/internal/view"
	_ "github.com/HenriqueProj/Web-App-BD/testing"
)

type stubRepo struct {
	operator *auth.Operator
	sessions map[string]int64
}

func (s *stubRepo) FindByUsername(_ context.Context, username string) (*auth.Operator, error) {
	if s.operator == nil || s.operator.Username != username {
		return nil, fmt.Errorf("find operator: %w", shared.ErrNotFound)
	}
	return s.operator, nil
}

func (s *stubRepo) CreateSession(_ context.Context, id string, operatorID int64, _ time.Time, _, _ string) error {
	s.sessions[id] = operatorID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type harness struct {
	router   http.Handler
	sessions *shared.SessionManager
	repo     *stubRepo
	cookie   *http.Cookie
}

// newHarness mounts the auth routes and a protected /secret route behind a session
// middleware that loads and commits real redis-backed sessions.
func newHarness(t *testing.T, op *auth.Operator) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	responder := view.NewResponder(engine, shared.NewCSRFManager("csrfsecret"), nil)
	repo := &stubRepo{operator: op, sessions: map[string]int64{}}
	handler := auth.NewHandler(nil, auth.NewService(repo), responder, sessions, validate.New())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			cw := &commitWriter{ResponseWriter: w, commit: func() {
				require.NoError(t, sessions.Commit(ctx, w, sess))
			}}
			next.ServeHTTP(cw, req.WithContext(ctx))
			cw.flush()
		})
	})
	r.Route("/auth", handler.MountRoutes)
	r.With(auth.RequireLogin).Get("/secret", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("actor=" + shared.ActorFromContext(req.Context())))
	})
	return &harness{router: r, sessions: sessions, repo: repo}
}

// commitWriter commits the session before the first header write.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	done   bool
}

func (w *commitWriter) flush() {
	if !w.done {
		w.done = true
		w.commit()
	}
}

func (w *commitWriter) WriteHeader(status int) {
	w.flush()
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (h *harness) do(t *testing.T, method, path string, form url.Values, accept string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == h.sessions.CookieName() {
			if c.MaxAge < 0 {
				h.cookie = nil
			} else {
				h.cookie = c
			}
		}
	}
	return rec
}

func testOperator(t *testing.T, active bool) *auth.Operator {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	return &auth.Operator{ID: 3, Username: "admin", PasswordHash: hash, IsActive: active}
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/auth/login", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<form")
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t, testOperator(t, true))
	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"wrong"}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")
	assert.Empty(t, h.repo.sessions)
}

func TestLoginDisabledOperator(t *testing.T) {
	h := newHarness(t, testOperator(t, false))
	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"correct horse"}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginMissingUsername(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"password": {"x"}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is required.")
}

func TestRequireLoginAnonymous(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/secret", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"))

	rec = h.do(t, http.MethodGet, "/secret", nil, "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestLoginThenLogout(t *testing.T) {
	h := newHarness(t, testOperator(t, true))

	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"admin"}, "password": {"correct horse"}}, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.NotNil(t, h.cookie)
	assert.Equal(t, int64(3), h.repo.sessions[h.cookie.Value])

	rec = h.do(t, http.MethodGet, "/secret", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "actor=admin", rec.Body.String())

	rec = h.do(t, http.MethodPost, "/auth/logout", url.Values{}, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, h.cookie)
	assert.Empty(t, h.repo.sessions)

	rec = h.do(t, http.MethodGet, "/secret", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
