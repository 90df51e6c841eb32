package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
)

// GET  /                    catalog grid (?category=&page=)
// GET  /filter              category change, restarts from page 1
// GET  /items/{id}          standalone item card
// GET  /items/{id}/delete   delete confirmation
// POST /items/{id}/delete   delete (confirm=yes)
// POST /cart/items          add to cart (item_id)
// POST /logout              clear session
//
// Every POST form carries a csrf token.

const title = "Storefront"

type CatalogHandler struct {
	catalog       port.CatalogReader
	cart          port.CartAdder
	deleter       port.ProductDeleter
	presenter     service.Presenter
	renderer      renderer
	sessionCookie string
	secureCookies bool
	csrfKey       []byte
}

type HandlerConfig struct {
	SessionCookie string
	SecureCookies bool
	// CSRFKey signs form tokens. Empty generates a key per process.
	CSRFKey []byte
}

func NewCatalogHandler(
	catalog port.CatalogReader,
	cart port.CartAdder,
	deleter port.ProductDeleter,
	presenter service.Presenter,
	cfg HandlerConfig,
) (CatalogHandler, error) {
	rd, err := newRenderer()
	if err != nil {
		return CatalogHandler{}, err
	}

	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}

	if len(cfg.CSRFKey) == 0 {
		cfg.CSRFKey, err = newCSRFKey()
		if err != nil {
			return CatalogHandler{}, err
		}
	}

	return CatalogHandler{
		catalog:       catalog,
		cart:          cart,
		deleter:       deleter,
		presenter:     presenter,
		renderer:      rd,
		sessionCookie: cfg.SessionCookie,
		secureCookies: cfg.SecureCookies,
		csrfKey:       cfg.CSRFKey,
	}, nil
}

func RegisterCatalog(r *mux.Router, h CatalogHandler) {
	r.HandleFunc("/", h.Grid).Methods(http.MethodGet)
	r.HandleFunc("/filter", h.Filter).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}", h.Item).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}/delete", h.ConfirmDelete).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}/delete", h.Delete).Methods(http.MethodPost)
	r.HandleFunc("/cart/items", h.AddToCart).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

// NewRouter returns the storefront handler with its middleware chain.
func NewRouter(h CatalogHandler) http.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(
		RequestLog,
		AllowForm,
		Protect(h.csrfKey, h.secureCookies),
		WithSession(h.sessionCookie),
	)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	RegisterCatalog(r, h)
	return r
}

func (h CatalogHandler) Grid(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Grid"
	log := slog.With("op", op)

	ctx := r.Context()
	s := SessionFromContext(ctx)
	q := catalogQuery(r)

	items, err := h.catalog.Items(ctx, q)
	if err != nil {
		log.Error("failed to read items", "err", err)
		h.renderError(w, r, http.StatusBadGateway, domain.MsgUnexpectedError)
		return
	}

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		log.Error("failed to read categories", "err", err)
		h.renderError(w, r, http.StatusBadGateway, domain.MsgUnexpectedError)
		return
	}

	h.renderer.render(w, http.StatusOK, pageGrid, gridPage{
		Layout: h.layout(w, r),
		Grid:   h.presenter.Grid(s, q, items, categories),
	})
}

// Filter applies a category selection; pagination restarts from page 1.
func (h CatalogHandler) Filter(w http.ResponseWriter, r *http.Request) {
	q := catalogQuery(r).WithCategory(r.URL.Query().Get("category"))
	http.Redirect(w, r, gridURL(q), http.StatusSeeOther)
}

func (h CatalogHandler) Item(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Item"

	ctx := r.Context()
	item, ok := h.readItem(w, r, op)
	if !ok {
		return
	}

	h.renderer.render(w, http.StatusOK, pageItem, itemPage{
		Layout: h.layout(w, r),
		Card:   h.presenter.Card(SessionFromContext(ctx), item),
	})
}

func (h CatalogHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.ConfirmDelete"

	s := SessionFromContext(r.Context())
	if !domain.PermissionsOf(s).Has(domain.PermManageCatalog) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	item, ok := h.readItem(w, r, op)
	if !ok {
		return
	}

	h.renderer.render(w, http.StatusOK, pageConfirm, confirmPage{
		Layout: h.layout(w, r),
		Card:   h.presenter.Card(s, item),
		Prompt: domain.MsgConfirmDelete,
		Cancel: returnTo(r.URL.Query().Get("return_to")),
	})
}

func (h CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Delete"
	log := slog.With("op", op)

	ctx := r.Context()
	id := itemID(r)
	back := returnTo(r.PostFormValue("return_to"))
	if back == domain.ItemPath(id) {
		back = "/"
	}

	n := new(flashNotifier)
	err := h.deleter.DeleteProduct(
		ctx, SessionFromContext(ctx), id, formConfirmer{r}, n,
	)
	if errors.Is(err, domain.ErrForbidden) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		log.Debug("delete not completed", "itemID", id, "err", err)
	}

	n.save(w, h.secureCookies)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h CatalogHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.AddToCart"
	log := slog.With("op", op)

	ctx := r.Context()
	s := SessionFromContext(ctx)
	id := r.PostFormValue("item_id")
	back := returnTo(r.PostFormValue("return_to"))
	n := new(flashNotifier)

	defer func() {
		n.save(w, h.secureCookies)
		http.Redirect(w, r, back, http.StatusSeeOther)
	}()

	// Anonymous sessions are refused before the item is read.
	if !domain.PermissionsOf(s).Has(domain.PermAddToCart) {
		err := h.cart.AddToCart(ctx, s, domain.CatalogItem{ID: id}, n)
		log.Debug("add to cart refused", "itemID", id, "err", err)
		return
	}

	item, err := h.catalog.Item(ctx, id)
	if err != nil {
		msg := domain.MsgUnexpectedError
		if errors.Is(err, domain.ErrNotFound) {
			msg = "Product not found"
		}
		n.Notify(ctx, domain.Notice{Severity: domain.SeverityError, Message: msg})
		log.Warn("failed to read item", "itemID", id, "err", err)
		return
	}

	if err := h.cart.AddToCart(ctx, s, item, n); err != nil {
		log.Debug("add to cart not completed", "itemID", id, "err", err)
	}
}

func (h CatalogHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, h.sessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h CatalogHandler) readItem(
	w http.ResponseWriter, r *http.Request, op string,
) (domain.CatalogItem, bool) {
	id := itemID(r)

	item, err := h.catalog.Item(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Product not found")
			return domain.CatalogItem{}, false
		}
		slog.Error("failed to read item", "op", op, "itemID", id, "err", err)
		h.renderError(w, r, http.StatusBadGateway, domain.MsgUnexpectedError)
		return domain.CatalogItem{}, false
	}
	return item, true
}

func (h CatalogHandler) renderError(
	w http.ResponseWriter, r *http.Request, status int, msg string,
) {
	h.renderer.render(w, status, pageError, errorPage{
		Layout:  h.layout(w, r),
		Message: msg,
	})
}

// layout reads the cart size and pops pending notices.
func (h CatalogHandler) layout(w http.ResponseWriter, r *http.Request) layout {
	const op = "CatalogHandler.layout"

	ctx := r.Context()
	s := SessionFromContext(ctx)

	size, err := h.catalog.CartSize(ctx, s)
	if err != nil {
		slog.Warn("failed to read cart size", "op", op, "err", err)
	}

	return layout{
		Title:     title,
		LoggedIn:  s.LoggedIn(),
		Email:     s.Email,
		CartSize:  size,
		Notices:   popFlash(w, r),
		ReturnTo:  r.URL.RequestURI(),
		CSRFField: csrf.TemplateField(r),
	}
}

func catalogQuery(r *http.Request) domain.CatalogQuery {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return domain.NewCatalogQuery(r.URL.Query().Get("category"), page)
}

func gridURL(q domain.CatalogQuery) string {
	return "/?category=" + url.QueryEscape(q.Category) + "&page=" + strconv.Itoa(q.Page)
}

// itemID is the decoded {id} path variable.
func itemID(r *http.Request) string {
	raw := mux.Vars(r)["id"]
	id, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return id
}

// returnTo accepts local paths only.
func returnTo(v string) string {
	if !strings.HasPrefix(v, "/") || strings.HasPrefix(v, "//") ||
		strings.HasPrefix(v, "/\\") {
		return "/"
	}
	return v
}
