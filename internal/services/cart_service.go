package services

import (
	"context"
	"strings"

	"farmfresh/internal/domain"
	"farmfresh/internal/repos"
)

// CartService keeps a customer's product id -> quantity map. Product ids are
// not checked against the catalog here; checkout does that.
type CartService struct {
	Carts *repos.CartRepo
	Clock Clock
}

func NewCartService(carts *repos.CartRepo, clock Clock) *CartService {
	return &CartService{Carts: carts, Clock: clock}
}

func customerOnly(op string, p domain.Principal) error {
	if p.Role != domain.RoleCustomer {
		return domain.Forbidden(op, "Only customers can use the cart")
	}
	return nil
}

func (s *CartService) Get(ctx context.Context, p domain.Principal) (domain.Cart, error) {
	const op = "cart.Get"
	if err := customerOnly(op, p); err != nil {
		return nil, err
	}
	c, err := s.Carts.Get(ctx, p.ID)
	if err != nil {
		return nil, notFoundOr(op, err, "User")
	}
	return c, nil
}

// Add puts one more of itemID into the cart.
func (s *CartService) Add(ctx context.Context, p domain.Principal, itemID string) (domain.Cart, error) {
	const op = "cart.Add"
	return s.update(ctx, op, p, itemID, func(c domain.Cart, id string) error {
		c[id]++
		return nil
	})
}

// Remove takes one of itemID out; the entry disappears at zero. Removing an
// item that is not in the cart changes nothing.
func (s *CartService) Remove(ctx context.Context, p domain.Principal, itemID string) (domain.Cart, error) {
	const op = "cart.Remove"
	return s.update(ctx, op, p, itemID, func(c domain.Cart, id string) error {
		if n, ok := c[id]; ok {
			if n <= 1 {
				delete(c, id)
			} else {
				c[id] = n - 1
			}
		}
		return nil
	})
}

// SetQuantity sets itemID to qty. Zero removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, p domain.Principal, itemID string, qty int) (domain.Cart, error) {
	const op = "cart.SetQuantity"
	if qty < 0 {
		return nil, domain.Validation(op, "Valid item ID and quantity required")
	}
	return s.update(ctx, op, p, itemID, func(c domain.Cart, id string) error {
		if qty == 0 {
			delete(c, id)
		} else {
			c[id] = qty
		}
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, p domain.Principal) error {
	const op = "cart.Clear"
	if err := customerOnly(op, p); err != nil {
		return err
	}
	if err := s.Carts.Clear(ctx, p.ID, s.Clock.Now()); err != nil {
		return notFoundOr(op, err, "User")
	}
	return nil
}

func (s *CartService) update(ctx context.Context, op string, p domain.Principal, itemID string, fn func(domain.Cart, string) error) (domain.Cart, error) {
	if err := customerOnly(op, p); err != nil {
		return nil, err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, domain.Validation(op, "Item ID is required")
	}
	c, err := s.Carts.Update(ctx, p.ID, s.Clock.Now(), func(c domain.Cart) error { return fn(c, itemID) })
	if err != nil {
		return nil, notFoundOr(op, err, "User")
	}
	return c, nil
}
