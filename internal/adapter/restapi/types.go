package restapi

import (
	"encoding/json"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	product struct {
		ID       string          `json:"_id"`
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Image    string          `json:"image,omitempty"`
		Category *category       `json:"category,omitempty"`
	}

	// cartProduct is a product as sent to the cart endpoint.
	cartProduct struct {
		ID       string      `json:"_id"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Image    string      `json:"image,omitempty"`
		Category *category   `json:"category,omitempty"`
	}

	category struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}

	cartItem struct {
		ID       string `json:"_id"`
		Quantity int    `json:"quantity"`
	}

	errorBody struct {
		Message string `json:"message"`
	}
)

func (v product) toDomain() domain.CatalogItem {
	item := domain.CatalogItem{
		ID:        v.ID,
		Name:      v.Name,
		Price:     v.Price,
		ImagePath: v.Image,
	}
	if v.Category != nil {
		c := v.Category.toDomain()
		item.Category = &c
	}
	return item
}

func cartProductFromDomain(v domain.CatalogItem) cartProduct {
	p := cartProduct{
		ID:    v.ID,
		Name:  v.Name,
		Price: json.Number(v.Price.String()),
		Image: v.ImagePath,
	}
	if v.Category != nil {
		p.Category = &category{ID: v.Category.ID, Name: v.Category.Name}
	}
	return p
}

func (v category) toDomain() domain.Category {
	return domain.Category{ID: v.ID, Name: v.Name}
}
