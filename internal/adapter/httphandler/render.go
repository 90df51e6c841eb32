package httphandler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageGrid    = "grid"
	pageItem    = "item"
	pageConfirm = "confirm"
	pageError   = "error"
)

type cardData struct {
	Card      service.CardView
	ReturnTo  string
	CSRFField template.HTML
}

var funcs = template.FuncMap{
	"card": func(c service.CardView, l layout) cardData {
		return cardData{Card: c, ReturnTo: l.ReturnTo, CSRFField: l.CSRFField}
	},
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (renderer, error) {
	const op = "newRenderer"

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageGrid, pageItem, pageConfirm, pageError} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/card.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return renderer{}, fmt.Errorf("%s: %w", op, err)
		}
		pages[name] = t
	}
	return renderer{pages}, nil
}

func (rd renderer) render(
	w http.ResponseWriter, status int, page string, data any,
) {
	const op = "renderer.render"
	log := slog.With("op", op, "page", page)

	t, ok := rd.pages[page]
	if !ok {
		panic(fmt.Errorf("%s: unknown page %q", op, page)) // develop mistake
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error("failed to execute template", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
