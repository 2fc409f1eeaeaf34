package repos

import (
	"context"
	"strings"
	"time"

	"farmfresh/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,name,email,password_hash,user_type,phone,address,farm_name,location,is_active,created_at,updated_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. Customers start with an empty cart; farmers have none.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, now time.Time) error {
	var cart any
	if u.Role == domain.RoleCustomer {
		cart = "{}"
	}
	stamp := ts(now)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(id,name,email,password_hash,user_type,phone,address,farm_name,location,cart_json,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,1,?,?)
	`, u.ID, u.Name, strings.ToLower(u.Email), u.Hash, u.Role, u.Phone, u.Address, u.FarmName, u.Location, cart, stamp, stamp)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return err
	}
	u.Email = strings.ToLower(u.Email)
	u.Active = true
	u.CreatedAt, u.UpdatedAt = stamp, stamp
	return nil
}

// UpdateProfile writes the editable contact fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User, now time.Time) error {
	stamp := ts(now)
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET name=?, phone=?, address=?, farm_name=?, location=?, updated_at=?
		WHERE id=?
	`, u.Name, u.Phone, u.Address, u.FarmName, u.Location, stamp, u.ID)
	if err == nil {
		u.UpdatedAt = stamp
	}
	return err
}
