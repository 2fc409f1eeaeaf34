package domain

type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryHerbs      Category = "herbs"
	CategoryOther      Category = "other"
)

var Categories = []Category{
	CategoryVegetables, CategoryFruits, CategoryGrains, CategoryDairy,
	CategoryMeat, CategoryHerbs, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitGram  Unit = "gram"
	UnitPiece Unit = "piece"
	UnitDozen Unit = "dozen"
	UnitLiter Unit = "liter"
)

var Units = []Unit{UnitKg, UnitGram, UnitPiece, UnitDozen, UnitLiter}

func (u Unit) Valid() bool {
	for _, v := range Units {
		if u == v {
			return true
		}
	}
	return false
}

type Product struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Category           Category     `json:"category"`
	Price              float64      `json:"price"`
	Unit               Unit         `json:"unit"`
	AvailableQuantity  int          `json:"availableQuantity"`
	MinOrderQuantity   int          `json:"minOrderQuantity"`
	Images             []string     `json:"images"`
	Tags               []string     `json:"tags"`
	IsOrganicCertified bool         `json:"isOrganicCertified"`
	IsInStock          bool         `json:"isInStock"`
	FarmerID           string       `json:"farmerId"`
	Farmer             *UserSummary `json:"farmer,omitempty"`
	CreatedAt          string       `json:"createdAt"`
	UpdatedAt          string       `json:"updatedAt"`
}

// LowStockThreshold is the quantity below which a product reports low stock.
const LowStockThreshold = 10

const (
	StockIn  = "in_stock"
	StockLow = "low_stock"
	StockOut = "out_of_stock"
)

type Availability struct {
	Status string `json:"status"` // in_stock | low_stock | out_of_stock
	Qty    int    `json:"qty"`
}

// StockStatus buckets a quantity.
func StockStatus(qty int) string {
	switch {
	case qty <= 0:
		return StockOut
	case qty < LowStockThreshold:
		return StockLow
	}
	return StockIn
}

// ProductInput carries product fields as supplied by a farmer. A nil field
// was not supplied: on create it is missing, on update it keeps the stored
// value.
type ProductInput struct {
	Name               *string
	Description        *string
	Category           *Category
	Price              *float64
	Unit               *Unit
	AvailableQuantity  *int
	MinOrderQuantity   *int
	IsOrganicCertified *bool
	Tags               *[]string
}

// SortBy values accepted by search.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
)

type SearchFilter struct {
	Query     string
	Category  Category
	MinPrice  *float64
	MaxPrice  *float64
	IsOrganic *bool
	SortBy    string
}

// SearchLimit caps search results.
const SearchLimit = 50
