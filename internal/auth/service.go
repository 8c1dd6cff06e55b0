package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/bfcdev/bfc-blog-backend/pkg"
)

const (
	// SessionCookieName holds the authenticated admin email. The cookie
	// itself is the whole session, there is no server side session store:
	// the gate re-checks the email against the directory on every request.
	SessionCookieName = "admin_email"

	SessionTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, the two must stay indistinguishable to the client.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrTooManyLoginAttempts = errors.New("too many login attempts")
)

type Service struct {
	directory     *Directory
	rateLimiter   *LoginRateLimiter
	secureCookies bool
	// injectable clock (for unit testing the attempts window)
	NowFunc func() time.Time
}

func NewService(
	directory *Directory,
	rateLimiter *LoginRateLimiter,
	secureCookies bool,
) *Service {
	return &Service{
		directory:     directory,
		rateLimiter:   rateLimiter,
		secureCookies: secureCookies,
		NowFunc:       time.Now,
	}
}

// Login validates the credentials against the admin directory. A successful
// login still counts towards the attempts window, the counter is not reset.
func (s *Service) Login(email, password string) (Admin, error) {
	if !s.rateLimiter.CheckAndRecord(email, s.NowFunc()) {
		return Admin{}, ErrTooManyLoginAttempts
	}

	admin, found := s.directory.FindByEmail(email)
	if !found {
		return Admin{}, ErrInvalidCredentials
	}

	if !pkg.CheckPasswordHash(password, admin.PasswordHash) {
		return Admin{}, ErrInvalidCredentials
	}

	return admin, nil
}

func (s *Service) SessionCookie(email string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    email,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *Service) LogoutCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
