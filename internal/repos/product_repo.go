package repos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"farmfresh/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	Description       string  `db:"description"`
	Category          string  `db:"category"`
	Price             float64 `db:"price"`
	Unit              string  `db:"unit"`
	AvailableQuantity int     `db:"available_quantity"`
	MinOrderQuantity  int     `db:"min_order_quantity"`
	ImagesJSON        string  `db:"images_json"`
	TagsJSON          string  `db:"tags_json"`
	Organic           bool    `db:"is_organic_certified"`
	InStock           bool    `db:"is_in_stock"`
	FarmerID          string  `db:"farmer_id"`
	CreatedAt         string  `db:"created_at"`
	UpdatedAt         string  `db:"updated_at"`

	FarmerName     string `db:"farmer_name"`
	FarmerFarmName string `db:"farmer_farm_name"`
	FarmerLocation string `db:"farmer_location"`
	FarmerPhone    string `db:"farmer_phone"`
}

func (row productRow) toDomain() domain.Product {
	p := domain.Product{
		ID:                 row.ID,
		Name:               row.Name,
		Description:        row.Description,
		Category:           domain.Category(row.Category),
		Price:              row.Price,
		Unit:               domain.Unit(row.Unit),
		AvailableQuantity:  row.AvailableQuantity,
		MinOrderQuantity:   row.MinOrderQuantity,
		Images:             []string{},
		Tags:               []string{},
		IsOrganicCertified: row.Organic,
		IsInStock:          row.InStock,
		FarmerID:           row.FarmerID,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	_ = json.Unmarshal([]byte(row.ImagesJSON), &p.Images)
	_ = json.Unmarshal([]byte(row.TagsJSON), &p.Tags)
	if row.FarmerName != "" {
		p.Farmer = &domain.UserSummary{
			ID: row.FarmerID, Name: row.FarmerName, FarmName: row.FarmerFarmName,
			Location: row.FarmerLocation, Phone: row.FarmerPhone,
		}
	}
	return p
}

func toDomainList(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

const productSelect = `
  SELECT
    p.id, p.name, p.description, p.category, p.price, p.unit, p.available_quantity,
    p.min_order_quantity, p.images_json, p.tags_json, p.is_organic_certified, p.is_in_stock,
    p.farmer_id, p.created_at, p.updated_at,
    COALESCE(u.name,'') AS farmer_name, COALESCE(u.farm_name,'') AS farmer_farm_name,
    COALESCE(u.location,'') AS farmer_location, COALESCE(u.phone,'') AS farmer_phone
  FROM products p
  LEFT JOIN users u ON u.id = p.farmer_id`

const newestFirst = ` ORDER BY p.created_at DESC, p.rowid DESC`

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product, now time.Time) error {
	stamp := ts(now)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id,name,description,category,price,unit,available_quantity,min_order_quantity,
		                     images_json,tags_json,is_organic_certified,farmer_id,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.Unit, p.AvailableQuantity, p.MinOrderQuantity,
		jsonList(p.Images), jsonList(p.Tags), p.IsOrganicCertified, p.FarmerID, stamp, stamp)
	if err != nil {
		return err
	}
	p.IsInStock = p.AvailableQuantity > 0
	p.CreatedAt, p.UpdatedAt = stamp, stamp
	return nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	if err := r.db.GetContext(ctx, &row, productSelect+` WHERE p.id = ?`, id); err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

func (r *ProductRepo) ListInStock(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, productSelect+` WHERE p.is_in_stock = 1`+newestFirst); err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *ProductRepo) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, productSelect+` WHERE p.farmer_id = ?`+newestFirst, farmerID); err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// likeEscaper makes user input literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ProductRepo) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Product, error) {
	where := `p.is_in_stock = 1`
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		pat := "%" + likeEscaper.Replace(q) + "%"
		where += ` AND (fold(p.name) LIKE ? ESCAPE '\' OR fold(p.description) LIKE ? ESCAPE '\'
		              OR EXISTS (SELECT 1 FROM json_each(p.tags_json) t WHERE fold(t.value) LIKE ? ESCAPE '\'))`
		args = append(args, pat, pat, pat)
	}
	if f.Category != "" {
		where += ` AND p.category = ?`
		args = append(args, f.Category)
	}
	if f.MinPrice != nil {
		where += ` AND p.price >= ?`
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where += ` AND p.price <= ?`
		args = append(args, *f.MaxPrice)
	}
	if f.IsOrganic != nil {
		where += ` AND p.is_organic_certified = ?`
		args = append(args, *f.IsOrganic)
	}

	order := newestFirst
	switch f.SortBy {
	case domain.SortPriceAsc:
		order = ` ORDER BY p.price ASC, p.created_at DESC`
	case domain.SortPriceDesc:
		order = ` ORDER BY p.price DESC, p.created_at DESC`
	case domain.SortNameAsc:
		order = ` ORDER BY p.name ASC`
	case domain.SortNameDesc:
		order = ` ORDER BY p.name DESC`
	}

	sql := productSelect + ` WHERE ` + where + order + ` LIMIT ?`
	args = append(args, domain.SearchLimit)

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// Update writes every mutable column of p. The owning farmer never changes.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, now time.Time) error {
	stamp := ts(now)
	_, err := r.db.ExecContext(ctx, `
		UPDATE products SET
		  name=?, description=?, category=?, price=?, unit=?, available_quantity=?, min_order_quantity=?,
		  images_json=?, tags_json=?, is_organic_certified=?, updated_at=?
		WHERE id=?
	`, p.Name, p.Description, p.Category, p.Price, p.Unit, p.AvailableQuantity, p.MinOrderQuantity,
		jsonList(p.Images), jsonList(p.Tags), p.IsOrganicCertified, stamp, p.ID)
	if err != nil {
		return err
	}
	p.IsInStock = p.AvailableQuantity > 0
	p.UpdatedAt = stamp
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
