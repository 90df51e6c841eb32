package domain

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AllCategories = "all"

	DefaultImagePath = "uploads/default_image.png"
	CreateItemPath   = "/add"
)

type (
	CatalogItem struct {
		ID        string
		Name      string
		Price     decimal.Decimal
		ImagePath string
		Category  *Category
	}

	Category struct {
		ID   string
		Name string
	}
)

// CategoryName returns the item category name or empty string
// when the item has no category.
func (v CatalogItem) CategoryName() string {
	if v.Category == nil {
		return ""
	}
	return v.Category.Name
}

// EditItemPath is the navigation target of the item edit page.
func EditItemPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

// ItemPath is the standalone item card page.
func ItemPath(id string) string {
	return "/items/" + url.PathEscape(id)
}

// DeleteItemPath is the delete confirmation page of the item.
func DeleteItemPath(id string) string {
	return ItemPath(id) + "/delete"
}

type (
	CartAddRequest struct {
		Item  CatalogItem
		Token string
	}

	DeleteRequest struct {
		ID    string
		Token string
	}
)

// A CatalogQuery selects a page of catalog items.
type CatalogQuery struct {
	Category string
	Page     int
}

func NewCatalogQuery(category string, page int) CatalogQuery {
	if category == "" {
		category = AllCategories
	}
	if page < 1 {
		page = 1
	}
	return CatalogQuery{Category: category, Page: page}
}

// WithCategory switches the category and restarts from the first page.
func (q CatalogQuery) WithCategory(category string) CatalogQuery {
	return NewCatalogQuery(category, 1)
}

func (q CatalogQuery) IsAll() bool {
	return q.Category == AllCategories
}

// An ImageResolver turns item image paths into absolute URLs.
type ImageResolver struct {
	BaseURL     string
	DefaultPath string
}

func (r ImageResolver) Resolve(imagePath string) string {
	base := r.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	if imagePath == "" {
		defaultPath := r.DefaultPath
		if defaultPath == "" {
			defaultPath = DefaultImagePath
		}
		return base + strings.TrimPrefix(defaultPath, "/")
	}
	return base + strings.TrimPrefix(imagePath, "/")
}
