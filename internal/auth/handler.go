package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bfcdev/bfc-blog-backend/internal/telemetry/metrics"
	"github.com/bfcdev/bfc-blog-backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service        *Service
	metricsManager *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
	router.HandleFunc("/api/logout", handler.handleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	User    loginUser `json:"user"`
}

type loginUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq loginRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			pkg.WriteJSONError(w, "Email and password are required", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			pkg.WriteJSONError(w, "An error occurred during login", http.StatusInternalServerError)
			return
		}
		loginReq = loginRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		pkg.WriteJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	admin, err := handler.service.Login(loginReq.Email, loginReq.Password)
	switch {
	case errors.Is(err, ErrTooManyLoginAttempts):
		handler.metricsManager.CounterRateLimitedLogins.Inc()
		log.Tracef("[rate limited] login attempt for: %s", loginReq.Email)
		pkg.WriteJSONError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	case errors.Is(err, ErrInvalidCredentials):
		handler.metricsManager.CounterFailedLogins.Inc()
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("[invalid credentials] failed login attempt for [%s] from %s", loginReq.Email, reqIp)
		pkg.WriteJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	case err != nil:
		log.Errorf("login failed: %s", err)
		pkg.WriteJSONError(w, "An error occurred during login", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, handler.service.SessionCookie(admin.Email))

	respBytes, err := json.Marshal(loginResponse{
		Success: true,
		User: loginUser{
			Email: admin.Email,
			Name:  admin.Name,
		},
	})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		pkg.WriteJSONError(w, "An error occurred during login", http.StatusInternalServerError)
		return
	}

	log.Tracef("new login success: %s", admin.Email)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		log.Printf("logout for [%s]", cookie.Value)
	}

	http.SetCookie(w, handler.service.LogoutCookie())
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"success":%t}`, true))
}
