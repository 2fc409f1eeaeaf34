package services

import (
	"context"
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"

	"farmfresh/internal/domain"
	applog "farmfresh/internal/log"
	"farmfresh/internal/repos"

	"github.com/google/uuid"
)

// ImagePrefix is the public URL path under which stored images are served.
const ImagePrefix = "/uploads/"

type CatalogService struct {
	Prods  *repos.ProductRepo
	Images ImageStore
	Clock  Clock
}

func NewCatalogService(prods *repos.ProductRepo, images ImageStore, clock Clock) *CatalogService {
	return &CatalogService{Prods: prods, Images: images, Clock: clock}
}

// Upload is an image sent along with a product. Filename is only used for
// its extension.
type Upload struct {
	Filename string
	Body     io.Reader
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func (s *CatalogService) ListInStock(ctx context.Context) ([]domain.Product, error) {
	ps, err := s.Prods.ListInStock(ctx)
	if err != nil {
		return nil, domain.Internal("catalog.ListInStock", err)
	}
	return ps, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, notFoundOr("catalog.GetProduct", err, "Product")
	}
	return p, nil
}

func (s *CatalogService) GetFarmerProducts(ctx context.Context, caller domain.Principal) ([]domain.Product, error) {
	const op = "catalog.GetFarmerProducts"
	if caller.Role != domain.RoleFarmer {
		return nil, domain.Forbidden(op, "Only farmers can view their products")
	}
	ps, err := s.Prods.ListByFarmer(ctx, caller.ID)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return ps, nil
}

func (s *CatalogService) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Product, error) {
	const op = "catalog.Search"
	if f.Category != "" && !f.Category.Valid() {
		return nil, domain.Validation(op, "Invalid category")
	}
	for _, b := range []*float64{f.MinPrice, f.MaxPrice} {
		if b != nil && (math.IsNaN(*b) || math.IsInf(*b, 0)) {
			return nil, domain.Validation(op, "price bounds must be numbers")
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, domain.Validation(op, "minPrice cannot exceed maxPrice")
	}
	ps, err := s.Prods.Search(ctx, f)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return ps, nil
}

func (s *CatalogService) AddProduct(ctx context.Context, caller domain.Principal, in domain.ProductInput, img *Upload) (domain.Product, error) {
	const op = "catalog.AddProduct"
	if caller.Role != domain.RoleFarmer {
		return domain.Product{}, domain.Forbidden(op, "Only farmers can add products")
	}
	switch {
	case in.Name == nil:
		return domain.Product{}, domain.Validation(op, "name is required")
	case in.Description == nil:
		return domain.Product{}, domain.Validation(op, "description is required")
	case in.Category == nil:
		return domain.Product{}, domain.Validation(op, "category is required")
	case in.Price == nil:
		return domain.Product{}, domain.Validation(op, "price is required")
	case in.Unit == nil:
		return domain.Product{}, domain.Validation(op, "unit is required")
	case in.AvailableQuantity == nil:
		return domain.Product{}, domain.Validation(op, "availableQuantity is required")
	}

	p := domain.Product{
		ID:               uuid.NewString(),
		FarmerID:         caller.ID,
		MinOrderQuantity: 1,
		Images:           []string{},
		Tags:             []string{},
	}
	apply(&p, in)
	if err := check(op, p); err != nil {
		return domain.Product{}, err
	}

	if img != nil {
		name, err := s.saveImage(op, img)
		if err != nil {
			return domain.Product{}, err
		}
		p.Images = []string{ImagePrefix + name}
	}

	if err := s.Prods.Create(ctx, &p, s.Clock.Now()); err != nil {
		s.dropImages(p.Images)
		return domain.Product{}, domain.Internal(op, err)
	}
	return s.reload(ctx, op, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, caller domain.Principal, id string, in domain.ProductInput, img *Upload) (domain.Product, error) {
	const op = "catalog.UpdateProduct"
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, notFoundOr(op, err, "Product")
	}
	if p.FarmerID != caller.ID {
		return domain.Product{}, domain.Forbidden(op, "Not authorized to update this product")
	}

	apply(&p, in)
	if err := check(op, p); err != nil {
		return domain.Product{}, err
	}

	old := p.Images
	if img != nil {
		name, err := s.saveImage(op, img)
		if err != nil {
			return domain.Product{}, err
		}
		p.Images = []string{ImagePrefix + name}
	}

	if err := s.Prods.Update(ctx, &p, s.Clock.Now()); err != nil {
		if img != nil {
			s.dropImages(p.Images)
		}
		return domain.Product{}, domain.Internal(op, err)
	}
	if img != nil {
		s.dropImages(old)
	}
	return s.reload(ctx, op, p)
}

func (s *CatalogService) RemoveProduct(ctx context.Context, caller domain.Principal, id string) error {
	const op = "catalog.RemoveProduct"
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return notFoundOr(op, err, "Product")
	}
	if p.FarmerID != caller.ID {
		return domain.Forbidden(op, "Not authorized to delete this product")
	}
	if err := s.Prods.Delete(ctx, id); err != nil {
		return domain.Internal(op, err)
	}
	s.dropImages(p.Images)
	return nil
}

// apply copies every supplied field of in onto p.
func apply(p *domain.Product, in domain.ProductInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.AvailableQuantity != nil {
		p.AvailableQuantity = *in.AvailableQuantity
	}
	if in.MinOrderQuantity != nil {
		p.MinOrderQuantity = *in.MinOrderQuantity
	}
	if in.IsOrganicCertified != nil {
		p.IsOrganicCertified = *in.IsOrganicCertified
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
}

func check(op string, p domain.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return domain.Validation(op, "name is required")
	case strings.TrimSpace(p.Description) == "":
		return domain.Validation(op, "description is required")
	case !p.Category.Valid():
		return domain.Validation(op, "%q is not a valid category", p.Category)
	case !p.Unit.Valid():
		return domain.Validation(op, "%q is not a valid unit", p.Unit)
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return domain.Validation(op, "price must be a number")
	case p.Price <= 0:
		return domain.Validation(op, "price must be greater than 0")
	case p.AvailableQuantity < 0:
		return domain.Validation(op, "availableQuantity cannot be negative")
	case p.MinOrderQuantity < 1:
		return domain.Validation(op, "minOrderQuantity must be at least 1")
	}
	return nil
}

func (s *CatalogService) saveImage(op string, img *Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if !imageExts[ext] {
		return "", domain.Validation(op, "Only jpg, png, gif and webp images are allowed")
	}
	name := uuid.NewString() + ext
	if err := s.Images.Save(name, img.Body); err != nil {
		return "", domain.Internal(op, err)
	}
	return name, nil
}

// dropImages removes stored files. Failures are logged; the product change
// has already happened.
func (s *CatalogService) dropImages(urls []string) {
	for _, u := range urls {
		if !strings.HasPrefix(u, ImagePrefix) {
			continue
		}
		if err := s.Images.Remove(path.Base(u)); err != nil {
			applog.Error(nil, "product.image.remove.fail", err, map[string]any{"image": u})
		}
	}
}

// reload reads p back so the farmer summary is populated.
func (s *CatalogService) reload(ctx context.Context, op string, p domain.Product) (domain.Product, error) {
	out, err := s.Prods.Get(ctx, p.ID)
	if err != nil {
		return domain.Product{}, domain.Internal(op, err)
	}
	return out, nil
}
