package view

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
	"github.com/HenriqueProj/Web-App-BD/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Operator    string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData. The page is buffered so a
// template error never leaves a half-written response.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Responder bundles what handlers need to answer with a page or a redirect.
type Responder struct {
	engine *Engine
	csrf   *shared.CSRFManager
	logger *slog.Logger
}

// NewResponder constructs a Responder.
func NewResponder(engine *Engine, csrf *shared.CSRFManager, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{engine: engine, csrf: csrf, logger: logger}
}

// Page renders tmpl with the session's CSRF token and pending flash message.
func (v *Responder) Page(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
		operator  string
	)
	if sess != nil {
		csrfToken, _ = v.csrf.EnsureToken(sess)
		flash = sess.PopFlash()
		operator = sess.Operator()
	}
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Operator:    operator,
		Data:        data,
	}
	if err := v.engine.Render(w, status, tmpl, viewData); err != nil {
		v.logger.Error("template render failed", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// RedirectWithFlash queues a flash message and answers 303.
func (v *Responder) RedirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
