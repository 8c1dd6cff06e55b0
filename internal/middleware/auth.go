package middleware

import (
	"net/http"
	"strings"

	"github.com/bfcdev/bfc-blog-backend/internal/auth"

	log "github.com/sirupsen/logrus"
)

type adminAuthorizer interface {
	IsAuthorized(email string) bool
}

// DashboardGate protects everything under the dashboard path prefix. The
// decision is made fresh on every request from the cookie and the admin
// directory, nothing is cached: an admin removed from the configuration
// loses access on the very next request.
type DashboardGate struct {
	directory       adminAuthorizer
	protectedPrefix string
	loginPath       string
}

func NewDashboardGate(directory adminAuthorizer) *DashboardGate {
	return &DashboardGate{
		directory:       directory,
		protectedPrefix: "/dashboard",
		loginPath:       "/login",
	}
}

func (g *DashboardGate) Gate() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, g.protectedPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			// CORS preflights carry no cookies, they must be answered
			// before the cookie check
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			// missing and invalid cookies get the exact same redirect,
			// no detail leaks to the client
			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || !g.directory.IsAuthorized(cookie.Value) {
				log.Tracef("[dashboard gate] unauthorized => %s", r.URL.Path)
				http.Redirect(w, r, g.loginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
