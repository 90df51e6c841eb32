package httphandler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const flashCookie = "flash"

var _ port.Notifier = (*flashNotifier)(nil)

type flashNotice struct {
	Severity string `json:"s"`
	Message  string `json:"m"`
}

// A flashNotifier keeps notices of one action until the redirect
// target renders them.
type flashNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *flashNotifier) Notify(_ context.Context, v domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, v)
}

func (n *flashNotifier) save(w http.ResponseWriter, secure bool) {
	const op = "flashNotifier.save"

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.notices) == 0 {
		return
	}

	vs := make([]flashNotice, 0, len(n.notices))
	for _, v := range n.notices {
		vs = append(vs, flashNotice{string(v.Severity), v.Message})
	}

	b, err := json.Marshal(vs)
	if err != nil {
		slog.Error("failed to encode notices", "op", op, "err", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns saved notices and clears them.
func popFlash(w http.ResponseWriter, r *http.Request) []domain.Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	clearCookie(w, flashCookie)

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}

	var vs []flashNotice
	if err := json.Unmarshal(b, &vs); err != nil {
		return nil
	}

	notices := make([]domain.Notice, 0, len(vs))
	for _, v := range vs {
		notices = append(notices, domain.Notice{
			Severity: domain.Severity(v.Severity),
			Message:  v.Message,
		})
	}
	return notices
}
