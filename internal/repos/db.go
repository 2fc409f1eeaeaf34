package repos

import (
	"database/sql/driver"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
)

// fold lower-cases text the way strings.ToLower does. SQLite's built-in
// LOWER only folds ASCII, so search compares fold(column) with a query
// lower-cased in Go.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			}
			return args[0], nil
		})
}

var (
	// ErrInsufficientStock is returned when a conditional stock decrement
	// matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleOrder is returned when an order changed state between read
	// and write, so the guarded update matched no row.
	ErrStaleOrder = errors.New("order state changed")
	ErrEmailTaken = errors.New("email already registered")
)

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2
		}
		return time.Time{}
	}
	return t
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: sqlite serialises writers anyway, transactions become
	// mutually exclusive and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users (customers keep their cart inline as JSON)
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  user_type TEXT NOT NULL CHECK (user_type IN ('farmer','customer')),
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  farm_name TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  cart_json TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL CHECK (category IN ('vegetables','fruits','grains','dairy','meat','herbs','other')),
  price REAL NOT NULL CHECK (price > 0),
  unit TEXT NOT NULL CHECK (unit IN ('kg','gram','piece','dozen','liter')),
  available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
  min_order_quantity INTEGER NOT NULL DEFAULT 1 CHECK (min_order_quantity >= 1),
  images_json TEXT NOT NULL DEFAULT '[]',
  tags_json TEXT NOT NULL DEFAULT '[]',
  is_organic_certified INTEGER NOT NULL DEFAULT 0,
  is_in_stock INTEGER GENERATED ALWAYS AS (available_quantity > 0) VIRTUAL,
  farmer_id TEXT NOT NULL REFERENCES users(id),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_farmer     ON products(farmer_id);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Orders (one product line each; product rows may be deleted later)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL REFERENCES users(id),
  farmer_id TEXT NOT NULL REFERENCES users(id),
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  total_price REAL NOT NULL CHECK (total_price > 0),
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','confirmed','ready','completed','cancelled')),
  pickup_date TEXT NOT NULL,
  pickup_location TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  payment INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL DEFAULT 'cash'
    CHECK (payment_method IN ('cash','card','upi','net_banking')),
  payment_date TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  CHECK (customer_id <> farmer_id)
);
CREATE INDEX IF NOT EXISTS idx_orders_customer_status ON orders(customer_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_farmer_status   ON orders(farmer_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at      ON orders(created_at);
`
	_, err := db.Exec(schema)
	return err
}

// SeedDemo inserts a couple of farmers, customers and products when the
// users table is empty. Safe to run on every start.
func SeedDemo(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo farmers/customers/products")

	type u struct {
		ID, Name, Email, Role, Phone, Address, FarmName, Location string
	}
	users := []u{
		{ID: "u-asha", Name: "Asha", Email: "asha@farmfresh.test", Role: "farmer", Phone: "+91 98000 00001",
			FarmName: "Green Valley Farm", Location: "Green Valley, Pune"},
		{ID: "u-ben", Name: "Ben", Email: "ben@farmfresh.test", Role: "farmer", Phone: "+91 98000 00002",
			FarmName: "Hilltop Orchards", Location: "Hilltop Road, Nashik"},
		{ID: "u-carla", Name: "Carla", Email: "carla@farmfresh.test", Role: "customer", Phone: "+91 98000 00003",
			Address: "12 Market Street, Pune"},
		{ID: "u-dev", Name: "Dev", Email: "dev@farmfresh.test", Role: "customer", Phone: "+91 98000 00004",
			Address: "4 Lake View, Mumbai"},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := ts(time.Now())

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		var cart any
		if x.Role == "customer" {
			cart = "{}"
		}
		if _, err := tx.Exec(`
			INSERT INTO users(id,name,email,password_hash,user_type,phone,address,farm_name,location,cart_json,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Name, x.Email, string(hash), x.Role, x.Phone, x.Address, x.FarmName, x.Location, cart, now, now); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO products(id,name,description,category,price,unit,available_quantity,min_order_quantity,
		                     images_json,tags_json,is_organic_certified,farmer_id,created_at,updated_at)
		VALUES
		  ('p-tomato','Heirloom Tomatoes','Vine ripened, picked this morning','vegetables',40,'kg',25,1,'[]','["tomato","fresh"]',1,'u-asha',?,?),
		  ('p-mango','Alphonso Mangoes','Hand picked Alphonso','fruits',120,'dozen',8,1,'[]','["mango","summer"]',0,'u-ben',?,?),
		  ('p-milk','Cow Milk','Raw whole milk','dairy',60,'liter',0,2,'[]','["milk"]',0,'u-asha',?,?),
		  ('p-basil','Holy Basil','Tulsi bunches','herbs',15,'piece',30,5,'[]','["tulsi","herb"]',1,'u-ben',?,?)
	`, now, now, now, now, now, now, now, now); err != nil {
		return err
	}

	return tx.Commit()
}
