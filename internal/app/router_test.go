package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	handler http.Handler
	redis   *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	application, err := Build(Dependencies{
		Config: &Config{
			AppEnv:            "test",
			AppRequestTimeout: 5 * time.Second,
			AppRateLimit:      1000,
			SessionTTL:        time.Hour,
			CSRFSecret:        "csrf",
			CacheTTL:          time.Minute,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Redis:  client,
	})
	require.NoError(t, err)
	return &testApp{handler: application.Handler, redis: mr}
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// signIn stores a session for operator directly in redis and returns its cookie.
func (a *testApp) signIn(t *testing.T, operator string) *http.Cookie {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"values":   map[string]string{"csrf_token": "tok"},
		"operator": operator,
	})
	require.NoError(t, err)
	require.NoError(t, a.redis.Set("backoffice:session:sess-1", string(payload)))
	return &http.Cookie{Name: SessionCookie, Value: "sess-1"}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	app := newTestApp(t)
	rec := app.serve(httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/orders/unpaid", nil)
	req.Header.Set("Accept", "application/json")
	rec = app.serve(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginPageSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)
	rec := app.serve(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			found = true
			assert.True(t, c.HttpOnly)
			assert.True(t, app.redis.Exists("backoffice:session:"+c.Value))
		}
	}
	assert.True(t, found)
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "admin")

	form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := app.serve(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	form.Set("csrf_token", "wrong")
	req = httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec = app.serve(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSignedInOperatorSeesHome(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(app.signIn(t, "admin"))
	rec := app.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin")
	assert.Contains(t, rec.Body.String(), "Products")
}

func TestMetricsAndJobHealth(t *testing.T) {
	app := newTestApp(t)
	app.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := app.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `backoffice_http_requests_total{code="200",route="/healthz"} 1`)

	rec = app.serve(httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue":"mail"`)
}

func TestStaticAssetsAreCached(t *testing.T) {
	app := newTestApp(t)
	rec := app.serve(httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}
