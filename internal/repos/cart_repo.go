package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"farmfresh/internal/domain"

	"github.com/jmoiron/sqlx"
)

// CartRepo stores a customer's cart as a JSON object on the user row.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func decodeCart(raw sql.NullString) (domain.Cart, error) {
	cart := domain.Cart{}
	if !raw.Valid || raw.String == "" {
		return cart, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *CartRepo) Get(ctx context.Context, userID string) (domain.Cart, error) {
	var raw sql.NullString
	if err := r.db.GetContext(ctx, &raw, `SELECT cart_json FROM users WHERE id = ?`, userID); err != nil {
		return nil, err
	}
	return decodeCart(raw)
}

// Update loads the cart, lets fn mutate it and writes the whole map back in
// one transaction. If fn returns an error nothing is written.
func (r *CartRepo) Update(ctx context.Context, userID string, now time.Time, fn func(domain.Cart) error) (domain.Cart, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw sql.NullString
	if err := tx.GetContext(ctx, &raw, `SELECT cart_json FROM users WHERE id = ?`, userID); err != nil {
		return nil, err
	}
	cart, err := decodeCart(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	b, err := json.Marshal(cart)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET cart_json = ?, updated_at = ? WHERE id = ?`,
		string(b), ts(now), userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *CartRepo) Clear(ctx context.Context, userID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET cart_json = '{}', updated_at = ? WHERE id = ?`, ts(now), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
