package domain

import "strings"

type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleCustomer Role = "customer"
)

// ParseRole accepts only the two known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleFarmer:
		return RoleFarmer, true
	case RoleCustomer:
		return RoleCustomer, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

type User struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Hash      string `db:"password_hash" json:"-"`
	Role      Role   `db:"user_type" json:"userType"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
	FarmName  string `db:"farm_name" json:"farmName"`
	Location  string `db:"location" json:"location"`
	Active    bool   `db:"is_active" json:"isActive"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt"`
}

// Principal is what a verified bearer token tells us about the caller.
type Principal struct {
	ID   string
	Role Role
}

// Cart maps product id to a positive quantity.
type Cart map[string]int

// UserSummary is the populated view of a user embedded in products and orders.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	FarmName string `json:"farmName,omitempty"`
	Location string `json:"location,omitempty"`
}
