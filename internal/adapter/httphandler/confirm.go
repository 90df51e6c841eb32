package httphandler

import (
	"context"
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.Confirmer = formConfirmer{}

// formConfirmer answers with the confirmation page submission.
// The prompt was shown when the page was rendered.
type formConfirmer struct {
	r *http.Request
}

func (c formConfirmer) Confirm(_ context.Context, _ string) bool {
	return c.r.PostFormValue("confirm") == "yes"
}
