package auth

import (
	"net/http"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/httpx"
	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// LoginPath is where anonymous browsers are sent.
const LoginPath = "/auth/login"

// RequireLogin rejects requests without a signed-in operator. Browsers are redirected
// to the login page; JSON clients get 401. The operator becomes the request's actor.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.Operator() == "" {
			if httpx.WantsJSON(r) {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), sess.Operator())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
