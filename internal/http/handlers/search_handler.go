package handlers

import (
	"strings"

	"farmfresh/internal/domain"
	"farmfresh/internal/services"
	"farmfresh/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func priceParam(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	f, ok := validate.Price(raw)
	if !ok {
		return nil, badRequest("product.search", key+" must be a number")
	}
	return &f, nil
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	f := domain.SearchFilter{
		Query:    validate.Q(c.Query("query")),
		Category: domain.Category(strings.ToLower(strings.TrimSpace(c.Query("category")))),
		SortBy:   validate.SortBy(c.Query("sortBy")),
	}
	var err error
	if f.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return fail(c, err)
	}
	if f.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return fail(c, err)
	}
	if v := strings.TrimSpace(c.Query("isOrganic")); v != "" {
		b, ok := validate.Bool(v)
		if !ok {
			return fail(c, badRequest("product.search", "isOrganic must be true or false"))
		}
		f.IsOrganic = &b
	}

	ps, err := h.Catalog.Search(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", ps, fiber.Map{"count": len(ps)})
}
