package middleware

import (
	"io"
	"net/http"
)

// DrainAndCloseRequest consumes whatever the handler left unread in the
// request body and closes it, so the underlying connection stays reusable.
// Matters mostly for the multipart blog post uploads, where a handler can
// bail out on validation before touching the body.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
		})
	}
}
