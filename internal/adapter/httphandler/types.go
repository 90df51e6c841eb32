package httphandler

import (
	"html/template"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

type (
	layout struct {
		Title    string
		LoggedIn bool
		Email    string
		CartSize int
		Notices  []domain.Notice
		ReturnTo string
		// CSRFField is the hidden token input of POST forms.
		CSRFField template.HTML
	}

	gridPage struct {
		Layout layout
		Grid   service.GridView
	}

	itemPage struct {
		Layout layout
		Card   service.CardView
	}

	confirmPage struct {
		Layout layout
		Card   service.CardView
		Prompt string
		Cancel string
	}

	errorPage struct {
		Layout  layout
		Message string
	}
)
