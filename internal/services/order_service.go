package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"farmfresh/internal/domain"
	applog "farmfresh/internal/log"
	"farmfresh/internal/repos"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Carts  *repos.CartRepo
	Clock  Clock

	// Idem, when set, rejects a repeated idempotency key on CreateOrder.
	Idem IdempotencyStore
	// Strict limits UpdateStatus to single forward steps of the order
	// lifecycle. Off by default: farmers may jump to any non-terminal state.
	Strict bool
}

func NewOrderService(orders *repos.OrderRepo, prods *repos.ProductRepo, carts *repos.CartRepo, clock Clock) *OrderService {
	return &OrderService{Orders: orders, Prods: prods, Carts: carts, Clock: clock}
}

// checkTerms validates pickup date, notes and payment method, and fills in
// the default payment method.
func (s *OrderService) checkTerms(op string, in *domain.NewOrder) error {
	if in.PickupDate.IsZero() {
		return domain.Validation(op, "Product, quantity, and pickup date are required")
	}
	now := s.Clock.Now().In(in.PickupDate.Location())
	y, m, d := in.PickupDate.Date()
	ty, tm, td := now.Date()
	if dateKey(y, int(m), d) < dateKey(ty, int(tm), td) {
		return domain.Validation(op, "Pickup date cannot be in the past")
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(in.Notes) > domain.MaxNotesLen {
		return domain.Validation(op, "Notes cannot exceed %d characters", domain.MaxNotesLen)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return domain.Validation(op, "%q is not a valid payment method", in.PaymentMethod)
	}
	return nil
}

func dateKey(y, m, d int) int { return y*10000 + m*100 + d }

// CreateOrder places a single-product order for a customer. Stock is taken
// in the same transaction as the insert, so two customers cannot both buy
// the last units.
func (s *OrderService) CreateOrder(ctx context.Context, caller domain.Principal, in domain.NewOrder) (domain.Order, error) {
	const op = "order.Create"
	if caller.Role != domain.RoleCustomer {
		return domain.Order{}, domain.Forbidden(op, "Only customers can create orders")
	}
	if strings.TrimSpace(in.ProductID) == "" || in.Quantity == 0 {
		return domain.Order{}, domain.Validation(op, "Product, quantity, and pickup date are required")
	}
	if in.Quantity < 1 {
		return domain.Order{}, domain.Validation(op, "Quantity must be a positive whole number")
	}
	if err := s.checkTerms(op, &in); err != nil {
		return domain.Order{}, err
	}
	return s.place(ctx, op, caller, in)
}

func (s *OrderService) place(ctx context.Context, op string, caller domain.Principal, in domain.NewOrder) (_ domain.Order, err error) {
	p, err := s.Prods.Get(ctx, in.ProductID)
	if err != nil {
		return domain.Order{}, notFoundOr(op, err, "Product")
	}
	switch {
	case !p.IsInStock:
		return domain.Order{}, domain.Conflict(op, "Product is out of stock")
	case in.Quantity > p.AvailableQuantity:
		return domain.Order{}, domain.Conflict(op, "Only %d %s available", p.AvailableQuantity, p.Unit)
	case in.Quantity < p.MinOrderQuantity:
		return domain.Order{}, domain.Conflict(op, "Minimum order quantity is %d %s", p.MinOrderQuantity, p.Unit)
	case p.FarmerID == caller.ID:
		return domain.Order{}, domain.Conflict(op, "You cannot order your own product")
	}

	if s.Idem != nil && in.IdempotencyKey != "" {
		key := caller.ID + ":" + in.IdempotencyKey
		claimed, cerr := s.Idem.Claim(ctx, key)
		if cerr != nil {
			return domain.Order{}, domain.Internal(op, cerr)
		}
		if !claimed {
			return domain.Order{}, domain.Conflict(op, "This order request was already submitted")
		}
		defer func() {
			if err != nil {
				_ = s.Idem.Release(ctx, key)
			}
		}()
	}

	total := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	o := domain.Order{
		ID:            uuid.NewString(),
		CustomerID:    caller.ID,
		FarmerID:      p.FarmerID,
		ProductID:     p.ID,
		Quantity:      in.Quantity,
		TotalPrice:    total.InexactFloat64(),
		Status:        domain.StatusPending,
		PickupDate:    in.PickupDate,
		Notes:         in.Notes,
		PaymentMethod: in.PaymentMethod,
	}
	if p.Farmer != nil {
		o.PickupLocation = p.Farmer.Location
	}

	if err := s.Orders.CreateWithStock(ctx, &o, s.Clock.Now()); err != nil {
		if errors.Is(err, repos.ErrInsufficientStock) {
			return domain.Order{}, domain.Conflict(op, "Not enough stock left for this product")
		}
		return domain.Order{}, domain.Internal(op, err)
	}

	if out, gerr := s.Orders.Get(ctx, o.ID); gerr == nil {
		return out, nil
	}
	return o, nil
}

// Checkout places one order per cart line. Lines that succeed leave the
// cart; lines that fail stay and carry the reason.
func (s *OrderService) Checkout(ctx context.Context, caller domain.Principal, terms domain.NewOrder) ([]domain.CheckoutLine, error) {
	const op = "order.Checkout"
	if caller.Role != domain.RoleCustomer {
		return nil, domain.Forbidden(op, "Only customers can create orders")
	}
	if err := s.checkTerms(op, &terms); err != nil {
		return nil, err
	}
	cart, err := s.Carts.Get(ctx, caller.ID)
	if err != nil {
		return nil, notFoundOr(op, err, "User")
	}
	if len(cart) == 0 {
		return nil, domain.Validation(op, "Cart is empty")
	}

	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]domain.CheckoutLine, 0, len(ids))
	placed := map[string]bool{}
	for _, id := range ids {
		line := domain.CheckoutLine{ProductID: id, Quantity: cart[id]}
		in := terms
		in.ProductID, in.Quantity, in.IdempotencyKey = id, cart[id], ""
		o, err := s.place(ctx, op, caller, in)
		if err != nil {
			if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrNotFound) {
				applog.Error(nil, "order.checkout.line.fail", err, map[string]any{"user_id": caller.ID, "product_id": id})
			}
			line.Error = domain.PublicMessage(err)
		} else {
			line.OrderID = o.ID
			placed[id] = true
		}
		lines = append(lines, line)
	}

	if len(placed) > 0 {
		_, err := s.Carts.Update(ctx, caller.ID, s.Clock.Now(), func(c domain.Cart) error {
			for id := range placed {
				delete(c, id)
			}
			return nil
		})
		if err != nil {
			return lines, domain.Internal(op, err)
		}
	}
	return lines, nil
}

func parseStatusFilter(op, status string) (domain.OrderStatus, error) {
	st := domain.OrderStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return "", domain.Validation(op, "Invalid status")
	}
	return st, nil
}

// ListForCustomer returns the caller's orders, newest first, with counts per
// status over the returned list.
func (s *OrderService) ListForCustomer(ctx context.Context, caller domain.Principal, status string) ([]domain.Order, domain.ListStats, error) {
	const op = "order.ListForCustomer"
	if caller.Role != domain.RoleCustomer {
		return nil, domain.ListStats{}, domain.Forbidden(op, "Only customers can view their orders")
	}
	st, err := parseStatusFilter(op, status)
	if err != nil {
		return nil, domain.ListStats{}, err
	}
	orders, err := s.Orders.ListByCustomer(ctx, caller.ID, st)
	if err != nil {
		return nil, domain.ListStats{}, domain.Internal(op, err)
	}
	var stats domain.ListStats
	for _, o := range orders {
		stats.Add(o.Status)
	}
	return orders, stats, nil
}

// ListForFarmer is ListForCustomer for the selling side, plus revenue over
// the completed orders in the list.
func (s *OrderService) ListForFarmer(ctx context.Context, caller domain.Principal, status string) ([]domain.Order, domain.ListStats, error) {
	const op = "order.ListForFarmer"
	if caller.Role != domain.RoleFarmer {
		return nil, domain.ListStats{}, domain.Forbidden(op, "Only farmers can view their orders")
	}
	st, err := parseStatusFilter(op, status)
	if err != nil {
		return nil, domain.ListStats{}, err
	}
	orders, err := s.Orders.ListByFarmer(ctx, caller.ID, st)
	if err != nil {
		return nil, domain.ListStats{}, domain.Internal(op, err)
	}
	var stats domain.ListStats
	rev := decimal.Zero
	for _, o := range orders {
		stats.Add(o.Status)
		if o.Status == domain.StatusCompleted {
			rev = rev.Add(decimal.NewFromFloat(o.TotalPrice))
		}
	}
	r := rev.Round(2).InexactFloat64()
	stats.TotalRevenue = &r
	return orders, stats, nil
}

func (s *OrderService) load(ctx context.Context, op, id string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, domain.Validation(op, "Order ID is required")
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, notFoundOr(op, err, "Order")
	}
	return o, nil
}

func (s *OrderService) GetDetails(ctx context.Context, caller domain.Principal, id string) (domain.Order, error) {
	const op = "order.GetDetails"
	o, err := s.load(ctx, op, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.CustomerID != caller.ID && o.FarmerID != caller.ID {
		return domain.Order{}, domain.Forbidden(op, "Not authorized to view this order")
	}
	return o, nil
}

// UpdateStatus lets the owning farmer move an order. Completed and
// cancelled orders are final. Cancelling here does not return stock; only
// a customer cancel does.
func (s *OrderService) UpdateStatus(ctx context.Context, caller domain.Principal, id, status string) (domain.Order, error) {
	const op = "order.UpdateStatus"
	if caller.Role != domain.RoleFarmer {
		return domain.Order{}, domain.Forbidden(op, "Only farmers can update order status")
	}
	to := domain.OrderStatus(strings.TrimSpace(status))
	if strings.TrimSpace(id) == "" || to == "" {
		return domain.Order{}, domain.Validation(op, "Order ID and status are required")
	}
	if !to.Valid() {
		return domain.Order{}, domain.Validation(op, "Invalid status")
	}
	o, err := s.load(ctx, op, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.FarmerID != caller.ID {
		return domain.Order{}, domain.Forbidden(op, "Not authorized to update this order")
	}
	if o.Status.Terminal() {
		return domain.Order{}, domain.Conflict(op, "Cannot update %s orders", o.Status)
	}
	if s.Strict && !o.Status.NextAllowed(to) {
		return domain.Order{}, domain.Conflict(op, "Cannot move order from %s to %s", o.Status, to)
	}
	if err := s.Orders.UpdateStatus(ctx, o.ID, o.Status, to, s.Clock.Now()); err != nil {
		if errors.Is(err, repos.ErrStaleOrder) {
			return domain.Order{}, domain.Conflict(op, "Order was changed by someone else, please reload")
		}
		return domain.Order{}, domain.Internal(op, err)
	}
	return s.load(ctx, op, o.ID)
}

// CancelOrder lets the ordering customer cancel a pending or confirmed
// order. The quantity goes back into stock and the reason, if any, is
// appended to the notes.
func (s *OrderService) CancelOrder(ctx context.Context, caller domain.Principal, id, reason string) error {
	const op = "order.Cancel"
	o, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if o.CustomerID != caller.ID {
		return domain.Forbidden(op, "Not authorized to cancel this order")
	}
	if !o.Status.Cancellable() {
		return domain.Conflict(op, "Cannot cancel order with status: %s", o.Status)
	}
	notes := o.Notes
	if r := strings.TrimSpace(reason); r != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += "Cancellation reason: " + r
	}
	if utf8.RuneCountInString(notes) > domain.MaxNotesLen {
		return domain.Validation(op, "Notes cannot exceed %d characters", domain.MaxNotesLen)
	}
	if err := s.Orders.CancelWithRestock(ctx, o, notes, s.Clock.Now()); err != nil {
		if errors.Is(err, repos.ErrStaleOrder) {
			return domain.Conflict(op, "Order was changed by someone else, please reload")
		}
		return domain.Internal(op, err)
	}
	return nil
}

// UpdatePaymentStatus marks an order paid. Either party may do it. An empty
// method keeps the one chosen at order time.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, caller domain.Principal, id, method string) (domain.Order, error) {
	const op = "order.UpdatePayment"
	pm := domain.PaymentMethod(strings.TrimSpace(method))
	if pm != "" && !pm.Valid() {
		return domain.Order{}, domain.Validation(op, "%q is not a valid payment method", pm)
	}
	o, err := s.load(ctx, op, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.CustomerID != caller.ID && o.FarmerID != caller.ID {
		return domain.Order{}, domain.Forbidden(op, "Not authorized to update payment for this order")
	}
	if o.Status == domain.StatusCancelled {
		return domain.Order{}, domain.Conflict(op, "Cannot process payment for cancelled order")
	}
	if pm == "" {
		pm = o.PaymentMethod
	}
	if err := s.Orders.MarkPaid(ctx, o.ID, pm, s.Clock.Now()); err != nil {
		if errors.Is(err, repos.ErrStaleOrder) {
			return domain.Order{}, domain.Conflict(op, "Cannot process payment for cancelled order")
		}
		return domain.Order{}, domain.Internal(op, err)
	}
	return s.load(ctx, op, o.ID)
}

// GetStats summarises all of the caller's orders. Revenue counts completed
// orders whether or not they are marked paid; cancelled orders are never
// counted as unpaid.
func (s *OrderService) GetStats(ctx context.Context, caller domain.Principal) (domain.OrderStats, error) {
	const op = "order.GetStats"
	var (
		orders []domain.Order
		err    error
	)
	switch caller.Role {
	case domain.RoleFarmer:
		orders, err = s.Orders.ListByFarmer(ctx, caller.ID, "")
	case domain.RoleCustomer:
		orders, err = s.Orders.ListByCustomer(ctx, caller.ID, "")
	default:
		return domain.OrderStats{}, domain.Forbidden(op, "Invalid user role")
	}
	if err != nil {
		return domain.OrderStats{}, domain.Internal(op, err)
	}

	var counts domain.StatusCounts
	var st domain.OrderStats
	rev := decimal.Zero
	for _, o := range orders {
		counts.Add(o.Status)
		if o.Status == domain.StatusCompleted {
			rev = rev.Add(decimal.NewFromFloat(o.TotalPrice))
		}
		if o.Payment {
			st.PaidOrders++
		} else if o.Status != domain.StatusCancelled {
			st.UnpaidOrders++
		}
	}
	st.TotalOrders = counts.Total
	st.Pending, st.Confirmed, st.Ready = counts.Pending, counts.Confirmed, counts.Ready
	st.Completed, st.Cancelled = counts.Completed, counts.Cancelled
	st.TotalRevenue = rev.Round(2).InexactFloat64()
	return st, nil
}

// DeleteOrder removes a cancelled order. Any authenticated user may do it.
func (s *OrderService) DeleteOrder(ctx context.Context, caller domain.Principal, id string) error {
	const op = "order.Delete"
	o, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if o.Status != domain.StatusCancelled {
		return domain.Conflict(op, "Only cancelled orders can be deleted")
	}
	if err := s.Orders.Delete(ctx, o.ID); err != nil {
		if errors.Is(err, repos.ErrStaleOrder) {
			return domain.Conflict(op, "Only cancelled orders can be deleted")
		}
		return domain.Internal(op, err)
	}
	return nil
}
