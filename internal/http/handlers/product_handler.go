package handlers

import (
	"farmfresh/internal/log"
	"farmfresh/internal/services"
	"farmfresh/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListInStock(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", ps, fiber.Map{"count": len(ps)})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, badRequest("product.detail", "Invalid product id"))
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", p, nil)
}

func (h *ProductHandler) FarmerProducts(c *fiber.Ctx) error {
	ps, err := h.Catalog.GetFarmerProducts(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", ps, fiber.Map{"count": len(ps)})
}

// upload returns the optional "image" part of a multipart request. The
// caller closes the returned body.
func upload(c *fiber.Ctx) (*services.Upload, func(), error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func (h *ProductHandler) Add(c *fiber.Ctx) error {
	in, err := validate.ProductForm(func(k string) string { return c.FormValue(k) })
	if err != nil {
		return fail(c, err)
	}
	img, done, err := upload(c)
	if err != nil {
		return fail(c, err)
	}
	defer done()

	p, err := h.Catalog.AddProduct(c.UserContext(), principal(c), in, img)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	log.Audit(c, "product.add", map[string]any{"product_id": p.ID, "has_image": img != nil})
	return render(c, fiber.StatusCreated, "Product added successfully", p, nil)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, badRequest("product.update", "Invalid product id"))
	}
	in, err := validate.ProductForm(func(k string) string { return c.FormValue(k) })
	if err != nil {
		return fail(c, err)
	}
	img, done, err := upload(c)
	if err != nil {
		return fail(c, err)
	}
	defer done()

	p, err := h.Catalog.UpdateProduct(c.UserContext(), principal(c), id, in, img)
	if err != nil {
		return fail(c, err)
	}
	log.Audit(c, "product.update", map[string]any{"product_id": p.ID, "new_image": img != nil})
	return render(c, fiber.StatusOK, "Product updated successfully", p, nil)
}

func (h *ProductHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, badRequest("product.remove", "Invalid product id"))
	}
	if err := h.Catalog.RemoveProduct(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	log.Audit(c, "product.remove", map[string]any{"product_id": id})
	return render(c, fiber.StatusOK, "Product removed successfully", nil, nil)
}
