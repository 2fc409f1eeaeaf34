package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// InventoryRepo owns the stock column of products. is_in_stock is a
// generated column, so every write here keeps it consistent.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Qty returns current stock for a product.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	if err := r.db.GetContext(ctx, &qty, `SELECT available_quantity FROM products WHERE id = ?`, productID); err != nil {
		return 0, err
	}
	return qty, nil
}

// Decrement atomically subtracts "by" units if enough stock exists.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, by int, now time.Time) error {
	return decrementStock(ctx, r.db, productID, by, now)
}

// Restore adds "by" units back. A product that no longer exists is ignored.
func (r *InventoryRepo) Restore(ctx context.Context, productID string, by int, now time.Time) error {
	return restoreStock(ctx, r.db, productID, by, now)
}

func decrementStock(ctx context.Context, ex sqlx.ExecerContext, productID string, by int, now time.Time) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE products
		SET available_quantity = available_quantity - ?, updated_at = ?
		WHERE id = ? AND available_quantity >= ?
	`, by, ts(now), productID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func restoreStock(ctx context.Context, ex sqlx.ExecerContext, productID string, by int, now time.Time) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE products
		SET available_quantity = available_quantity + ?, updated_at = ?
		WHERE id = ?
	`, by, ts(now), productID)
	return err
}
