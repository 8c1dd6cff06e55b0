package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bfcdev/bfc-blog-backend/internal/auth"
	"github.com/bfcdev/bfc-blog-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedTestRouter(t *testing.T, directory *auth.Directory) *mux.Router {
	t.Helper()

	r := mux.NewRouter()
	okHandler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	r.HandleFunc("/api/blogs", okHandler).Methods("GET")
	r.HandleFunc("/dashboard/api/blogs", okHandler).Methods("GET", "POST")
	r.HandleFunc("/dashboard/anything", okHandler).Methods("GET")

	r.Use(middleware.NewDashboardGate(directory).Gate())
	return r
}

func TestDashboardGate(t *testing.T) {
	directory := auth.NewDirectory([]auth.Admin{
		{Email: "rahat@bfc.com", Name: "Rahat Nadeem"},
	})

	testCases := []struct {
		name               string
		path               string
		cookieValue        string
		expectedStatusCode int
	}{
		{
			name:               "public path, no cookie",
			path:               "/api/blogs",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "dashboard, no cookie",
			path:               "/dashboard/anything",
			expectedStatusCode: http.StatusFound,
		},
		{
			name:               "dashboard, authorized cookie",
			path:               "/dashboard/api/blogs",
			cookieValue:        "rahat@bfc.com",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "dashboard, unknown email in cookie",
			path:               "/dashboard/api/blogs",
			cookieValue:        "intruder@bfc.com",
			expectedStatusCode: http.StatusFound,
		},
	}

	r := gatedTestRouter(t, directory)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", tc.path, nil)
			require.NoError(t, err)
			if tc.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tc.cookieValue})
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedStatusCode == http.StatusFound {
				assert.Equal(t, "/login", rr.Header().Get("Location"))
			}
		})
	}
}

// a cookie issued while the admin was still configured stops working as
// soon as the admin is gone from the directory
func TestDashboardGate_removedAdminLosesAccess(t *testing.T) {
	withAdmin := gatedTestRouter(t, auth.NewDirectory([]auth.Admin{
		{Email: "arham@bfc.com", Name: "Arham Vaid"},
	}))
	withoutAdmin := gatedTestRouter(t, auth.NewDirectory(nil))

	req, err := http.NewRequest("GET", "/dashboard/api/blogs", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "arham@bfc.com"})

	rr := httptest.NewRecorder()
	withAdmin.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	withoutAdmin.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

// the browser sends no cookies on a CORS preflight, so OPTIONS has to get
// through the gate for preflighted PUT/DELETE to dashboard routes to work
func TestDashboardGate_preflightPassesWithoutCookie(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/dashboard/api/blogs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("PUT", "OPTIONS")
	r.Use(middleware.Cors())
	r.Use(middleware.NewDashboardGate(auth.NewDirectory(nil)).Gate())

	req, err := http.NewRequest("OPTIONS", "/dashboard/api/blogs/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://bfcblog.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
	assert.Equal(t, "https://bfcblog.com", rr.Header().Get("Access-Control-Allow-Origin"))

	// the PUT itself still needs the cookie
	putReq, err := http.NewRequest("PUT", "/dashboard/api/blogs/1", nil)
	require.NoError(t, err)
	putReq.Header.Set("Origin", "https://bfcblog.com")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, putReq)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

// missing cookie and bogus cookie are indistinguishable from the outside
func TestDashboardGate_noDetailLeaked(t *testing.T) {
	r := gatedTestRouter(t, auth.NewDirectory(nil))

	reqNoCookie, err := http.NewRequest("GET", "/dashboard/anything", nil)
	require.NoError(t, err)
	rrNoCookie := httptest.NewRecorder()
	r.ServeHTTP(rrNoCookie, reqNoCookie)

	reqBadCookie, err := http.NewRequest("GET", "/dashboard/anything", nil)
	require.NoError(t, err)
	reqBadCookie.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "whoever@bfc.com"})
	rrBadCookie := httptest.NewRecorder()
	r.ServeHTTP(rrBadCookie, reqBadCookie)

	assert.Equal(t, rrNoCookie.Code, rrBadCookie.Code)
	assert.Equal(t, rrNoCookie.Header().Get("Location"), rrBadCookie.Header().Get("Location"))
	assert.Equal(t, rrNoCookie.Body.String(), rrBadCookie.Body.String())
}
