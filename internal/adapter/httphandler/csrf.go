package httphandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
)

const (
	csrfCookie = "_csrf"
	csrfField  = "csrf_token"
	csrfKeyLen = 32
)

var errCSRFKey = errors.New("failed to generate csrf key")

// newCSRFKey is used when no shared key is configured.
// Tokens issued by one process are then rejected by the others.
func newCSRFKey() ([]byte, error) {
	key := securecookie.GenerateRandomKey(csrfKeyLen)
	if key == nil {
		return nil, errCSRFKey
	}
	slog.Warn("csrf key is not configured, generated one for this process")
	return key, nil
}

// Protect rejects unsafe requests that carry no valid form token
// or come from another origin.
//
// Without secure cookies the storefront is served over plain HTTP
// and Referer is not required.
func Protect(key []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName(csrfCookie),
		csrf.FieldName(csrfField),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}

		hf := func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		}
		return http.HandlerFunc(hf)
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	const op = "csrfFailure"

	slog.Warn("rejected request",
		"op", op,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"reason", csrf.FailureReason(r),
	)
	http.Error(w, "forbidden", http.StatusForbidden)
}
