package services

import (
	"context"

	"farmfresh/internal/domain"
	"farmfresh/internal/repos"
)

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability converts qty to in_stock / low_stock / out_of_stock.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		return domain.Availability{}, notFoundOr("inventory.CheckAvailability", err, "Product")
	}
	return domain.Availability{Status: domain.StockStatus(qty), Qty: qty}, nil
}
