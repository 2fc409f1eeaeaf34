package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"farmfresh/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID             string         `db:"id"`
	CustomerID     string         `db:"customer_id"`
	FarmerID       string         `db:"farmer_id"`
	ProductID      string         `db:"product_id"`
	Quantity       int            `db:"quantity"`
	TotalPrice     float64        `db:"total_price"`
	Status         string         `db:"status"`
	PickupDate     string         `db:"pickup_date"`
	PickupLocation string         `db:"pickup_location"`
	Notes          string         `db:"notes"`
	Payment        bool           `db:"payment"`
	PaymentMethod  string         `db:"payment_method"`
	PaymentDate    sql.NullString `db:"payment_date"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`

	ProductName        sql.NullString  `db:"product_name"`
	ProductDescription sql.NullString  `db:"product_description"`
	ProductCategory    sql.NullString  `db:"product_category"`
	ProductPrice       sql.NullFloat64 `db:"product_price"`
	ProductUnit        sql.NullString  `db:"product_unit"`
	ProductImages      sql.NullString  `db:"product_images"`

	CustomerName    string `db:"customer_name"`
	CustomerEmail   string `db:"customer_email"`
	CustomerPhone   string `db:"customer_phone"`
	CustomerAddress string `db:"customer_address"`

	FarmerName     string `db:"farmer_name"`
	FarmerEmail    string `db:"farmer_email"`
	FarmerPhone    string `db:"farmer_phone"`
	FarmerFarmName string `db:"farmer_farm_name"`
	FarmerLocation string `db:"farmer_location"`
}

func (row orderRow) toDomain() domain.Order {
	o := domain.Order{
		ID:             row.ID,
		CustomerID:     row.CustomerID,
		FarmerID:       row.FarmerID,
		ProductID:      row.ProductID,
		Quantity:       row.Quantity,
		TotalPrice:     row.TotalPrice,
		Status:         domain.OrderStatus(row.Status),
		PickupDate:     parseTS(row.PickupDate),
		PickupLocation: row.PickupLocation,
		Notes:          row.Notes,
		Payment:        row.Payment,
		PaymentMethod:  domain.PaymentMethod(row.PaymentMethod),
		CreatedAt:      parseTS(row.CreatedAt),
		UpdatedAt:      parseTS(row.UpdatedAt),
		Customer: &domain.UserSummary{
			ID: row.CustomerID, Name: row.CustomerName, Email: row.CustomerEmail,
			Phone: row.CustomerPhone, Address: row.CustomerAddress,
		},
		Farmer: &domain.UserSummary{
			ID: row.FarmerID, Name: row.FarmerName, Email: row.FarmerEmail, Phone: row.FarmerPhone,
			FarmName: row.FarmerFarmName, Location: row.FarmerLocation,
		},
	}
	if row.PaymentDate.Valid {
		t := parseTS(row.PaymentDate.String)
		o.PaymentDate = &t
	}
	// The product may have been deleted since the order was placed.
	if row.ProductName.Valid {
		ps := &domain.ProductSummary{
			ID:          row.ProductID,
			Name:        row.ProductName.String,
			Description: row.ProductDescription.String,
			Category:    domain.Category(row.ProductCategory.String),
			Price:       row.ProductPrice.Float64,
			Unit:        domain.Unit(row.ProductUnit.String),
			Images:      []string{},
		}
		_ = json.Unmarshal([]byte(row.ProductImages.String), &ps.Images)
		o.Product = ps
	}
	return o
}

const orderSelect = `
  SELECT
    o.id, o.customer_id, o.farmer_id, o.product_id, o.quantity, o.total_price, o.status,
    o.pickup_date, o.pickup_location, o.notes, o.payment, o.payment_method, o.payment_date,
    o.created_at, o.updated_at,
    p.name AS product_name, p.description AS product_description, p.category AS product_category,
    p.price AS product_price, p.unit AS product_unit, p.images_json AS product_images,
    COALESCE(c.name,'') AS customer_name, COALESCE(c.email,'') AS customer_email,
    COALESCE(c.phone,'') AS customer_phone, COALESCE(c.address,'') AS customer_address,
    COALESCE(f.name,'') AS farmer_name, COALESCE(f.email,'') AS farmer_email,
    COALESCE(f.phone,'') AS farmer_phone, COALESCE(f.farm_name,'') AS farmer_farm_name,
    COALESCE(f.location,'') AS farmer_location
  FROM orders o
  LEFT JOIN products p ON p.id = o.product_id
  LEFT JOIN users c ON c.id = o.customer_id
  LEFT JOIN users f ON f.id = o.farmer_id`

// CreateWithStock inserts the order and takes its quantity out of stock in a
// single transaction. ErrInsufficientStock means nothing was written.
func (r *OrderRepo) CreateWithStock(ctx context.Context, o *domain.Order, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := ts(now)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders(id, customer_id, farmer_id, product_id, quantity, total_price, status,
		                   pickup_date, pickup_location, notes, payment, payment_method, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, o.ID, o.CustomerID, o.FarmerID, o.ProductID, o.Quantity, o.TotalPrice, o.Status,
		ts(o.PickupDate), o.PickupLocation, o.Notes, o.PaymentMethod, stamp, stamp)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if err := decrementStock(ctx, tx, o.ProductID, o.Quantity, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	o.CreatedAt, o.UpdatedAt = parseTS(stamp), parseTS(stamp)
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, orderSelect+` WHERE o.id = ?`, id); err != nil {
		return domain.Order{}, err
	}
	return row.toDomain(), nil
}

func (r *OrderRepo) list(ctx context.Context, column, userID string, status domain.OrderStatus) ([]domain.Order, error) {
	q := orderSelect + ` WHERE o.` + column + ` = ?`
	args := []any{userID}
	if status != "" {
		q += ` AND o.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY o.created_at DESC, o.rowid DESC`

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListByCustomer returns a customer's orders, newest first. An empty status
// means all statuses.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, "customer_id", customerID, status)
}

func (r *OrderRepo) ListByFarmer(ctx context.Context, farmerID string, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, "farmer_id", farmerID, status)
}

// UpdateStatus moves an order from "from" to "to". ErrStaleOrder means the
// stored status was no longer "from".
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, ts(now), id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleOrder
	}
	return nil
}

// CancelWithRestock cancels a pending or confirmed order, stores the new
// notes and puts its quantity back into stock, all in one transaction.
func (r *OrderRepo) CancelWithRestock(ctx context.Context, o domain.Order, notes string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'cancelled', notes = ?, updated_at = ?
		WHERE id = ? AND status IN ('pending','confirmed')
	`, notes, ts(now), o.ID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleOrder
	}
	if err := restoreStock(ctx, tx, o.ProductID, o.Quantity, now); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return tx.Commit()
}

// MarkPaid sets the payment flag, stamps payment_date the first time and
// stores the payment method. Cancelled orders are left untouched
// (ErrStaleOrder).
func (r *OrderRepo) MarkPaid(ctx context.Context, id string, method domain.PaymentMethod, now time.Time) error {
	stamp := ts(now)
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment = 1, payment_method = ?, payment_date = COALESCE(payment_date, ?), updated_at = ?
		WHERE id = ? AND status <> 'cancelled'
	`, method, stamp, stamp, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleOrder
	}
	return nil
}

// Delete removes a cancelled order. ErrStaleOrder means it was not cancelled.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ? AND status = 'cancelled'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleOrder
	}
	return nil
}
