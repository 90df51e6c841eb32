package service

import (
	"github.com/niksmo/storefront/internal/core/domain"
)

type CardContext string

const (
	CardInGrid     CardContext = "grid"
	CardStandalone CardContext = "standalone"
)

type (
	// A CardView is one rendered catalog item.
	CardView struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		ImageURL  string      `json:"image_url"`
		Price     string      `json:"price"`
		Category  string      `json:"category"`
		Context   CardContext `json:"context"`
		CanManage bool        `json:"can_manage"`
		EditURL   string      `json:"edit_url,omitempty"`
		DeleteURL string      `json:"delete_url,omitempty"`
	}

	FilterOption struct {
		Value    string `json:"value"`
		Label    string `json:"label"`
		Selected bool   `json:"selected"`
	}

	GridView struct {
		Filter    []FilterOption `json:"filter"`
		Category  string         `json:"category"`
		Page      int            `json:"page"`
		Cards     []CardView     `json:"cards"`
		Empty     bool           `json:"empty"`
		CanCreate bool           `json:"can_create"`
		CreateURL string         `json:"create_url,omitempty"`
	}
)

// A Presenter builds view models of catalog pages.
//
// Permissions are resolved once per view from the session.
type Presenter struct {
	images domain.ImageResolver
}

func NewPresenter(images domain.ImageResolver) Presenter {
	return Presenter{images}
}

func (p Presenter) Grid(
	s domain.Session,
	q domain.CatalogQuery,
	items []domain.CatalogItem,
	categories []domain.Category,
) GridView {
	perms := domain.PermissionsOf(s)

	v := GridView{
		Filter:   p.filter(q, categories),
		Category: q.Category,
		Page:     q.Page,
		Cards:    make([]CardView, 0, len(items)),
		Empty:    len(items) == 0,
	}

	for _, item := range items {
		v.Cards = append(v.Cards, p.card(perms, item, CardInGrid))
	}

	if perms.Has(domain.PermManageCatalog) {
		v.CanCreate = true
		v.CreateURL = domain.CreateItemPath
	}
	return v
}

func (p Presenter) Card(s domain.Session, item domain.CatalogItem) CardView {
	return p.card(domain.PermissionsOf(s), item, CardStandalone)
}

func (p Presenter) card(
	perms domain.Permissions, item domain.CatalogItem, c CardContext,
) CardView {
	v := CardView{
		ID:       item.ID,
		Name:     item.Name,
		ImageURL: p.images.Resolve(item.ImagePath),
		Price:    item.Price.StringFixed(2),
		Category: item.CategoryName(),
		Context:  c,
	}

	if perms.Has(domain.PermManageCatalog) {
		v.CanManage = true
		v.EditURL = domain.EditItemPath(item.ID)
		v.DeleteURL = domain.DeleteItemPath(item.ID)
	}
	return v
}

func (p Presenter) filter(
	q domain.CatalogQuery, categories []domain.Category,
) []FilterOption {
	opts := make([]FilterOption, 0, len(categories)+1)
	opts = append(opts, FilterOption{
		Value:    domain.AllCategories,
		Label:    "All Categories",
		Selected: q.IsAll(),
	})
	for _, c := range categories {
		opts = append(opts, FilterOption{
			Value:    c.ID,
			Label:    c.Name,
			Selected: q.Category == c.ID,
		})
	}
	return opts
}
