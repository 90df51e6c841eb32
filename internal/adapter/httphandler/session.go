package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/niksmo/storefront/internal/core/domain"
)

const DefaultSessionCookie = "currentUser"

type sessionKey struct{}

type sessionCookie struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// SessionFromContext returns the request session.
// Requests without a session cookie are anonymous.
func SessionFromContext(ctx context.Context) domain.Session {
	s, _ := ctx.Value(sessionKey{}).(domain.Session)
	return s
}

func ContextWithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// WithSession reads the session cookie written by the login flow:
// URL-encoded JSON {"email","role","token"}.
func WithSession(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			const op = "WithSession"

			c, err := r.Cookie(cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			s, err := parseSessionCookie(c.Value)
			if err != nil {
				slog.Debug("ignored malformed session cookie", "op", op, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
		}
		return http.HandlerFunc(hf)
	}
}

func parseSessionCookie(value string) (domain.Session, error) {
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return domain.Session{}, fmt.Errorf("unescape: %w", err)
	}

	var v sessionCookie
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.Session{}, fmt.Errorf("decode: %w", err)
	}

	return domain.Session{
		Email: v.Email,
		Role:  domain.Role(v.Role),
		Token: v.Token,
	}, nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
