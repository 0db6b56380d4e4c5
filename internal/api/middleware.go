package api

import (
	"crypto/hmac"
	"net/http"
	"strings"
	"time"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
)

// SessionAuth validates portal session tokens.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// The middleware verifies the token, loads the user record, and attaches it
// to the request context. Tokens for deleted users are rejected.
func SessionAuth(cfg config.Config, users *user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
				return
			}

			token := strings.TrimSpace(authz[7:])
			vs, err := VerifySessionToken(token, cfg.AuthSecret, time.Now())
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
				return
			}

			u, err := users.FindByID(r.Context(), vs.UserID)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin rejects non-admin sessions. Must run after SessionAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
			return
		}
		if !u.IsAdmin() {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff allows lab staff and admins. Must run after SessionAuth.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
			return
		}
		if !u.IsStaff() {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CronKeyAuth guards scheduler-triggered endpoints with a shared job key in
// the X-Job-Key header. These routes never see a user session.
func CronKeyAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("X-Job-Key"))
			if cfg.CronJobKey == "" || !hmac.Equal([]byte(key), []byte(cfg.CronJobKey)) {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid job key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
