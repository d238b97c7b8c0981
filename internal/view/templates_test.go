package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusOK, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

func TestResponderPageShowsFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	responder := NewResponder(engine, shared.NewCSRFManager("secret"), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	responder.RedirectWithFlash(rec, req, "/", shared.FlashSuccess, "ignored without session")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	responder.Page(rec, req, http.StatusOK, "pages/home.html", "Home", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Products")
}
