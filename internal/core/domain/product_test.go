package domain_test

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestImageResolver(t *testing.T) {
	r := domain.ImageResolver{BaseURL: "http://localhost:5000"}

	t.Run("EmptyPath", func(t *testing.T) {
		assert.Equal(t,
			"http://localhost:5000/uploads/default_image.png",
			r.Resolve(""),
		)
	})

	t.Run("GivenPath", func(t *testing.T) {
		assert.Equal(t,
			"http://localhost:5000/uploads/ball.png",
			r.Resolve("uploads/ball.png"),
		)
	})

	t.Run("CustomDefault", func(t *testing.T) {
		r := domain.ImageResolver{
			BaseURL:     "https://cdn.example.com/",
			DefaultPath: "/static/none.png",
		}
		assert.Equal(t, "https://cdn.example.com/static/none.png", r.Resolve(""))
	})
}

func TestCatalogQuery(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q := domain.NewCatalogQuery("", 0)
		assert.Equal(t, domain.AllCategories, q.Category)
		assert.Equal(t, 1, q.Page)
		assert.True(t, q.IsAll())
	})

	t.Run("WithCategoryResetsPage", func(t *testing.T) {
		for _, page := range []int{1, 2, 7, 100} {
			q := domain.NewCatalogQuery("all", page).WithCategory("c1")
			assert.Equal(t, "c1", q.Category)
			assert.Equal(t, 1, q.Page, "previous page %d", page)
		}
	})
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "", domain.CatalogItem{ID: "p1"}.CategoryName())
	item := domain.CatalogItem{
		ID:       "p1",
		Category: &domain.Category{ID: "c1", Name: "Toys"},
	}
	assert.Equal(t, "Toys", item.CategoryName())
}

func TestItemPaths(t *testing.T) {
	assert.Equal(t, "/items/p1", domain.ItemPath("p1"))
	assert.Equal(t, "/items/p1/delete", domain.DeleteItemPath("p1"))
	assert.Equal(t, "/products/p1", domain.EditItemPath("p1"))

	assert.Equal(t, "/items/a%2Fb%20c", domain.ItemPath("a/b c"))
	assert.Equal(t, "/items/..%2Fadmin/delete", domain.DeleteItemPath("../admin"))
	assert.Equal(t, "/products/a%2Fb%20c", domain.EditItemPath("a/b c"))
}
