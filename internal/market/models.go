package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryEggs      Category = "eggs"
	CategoryHoney     Category = "honey"
	CategoryPreserves Category = "preserves"
	CategoryPlants    Category = "plants"
	CategoryOther     Category = "other"
)

var categories = map[Category]bool{
	CategoryProduce:   true,
	CategoryDairy:     true,
	CategoryMeat:      true,
	CategoryEggs:      true,
	CategoryHoney:     true,
	CategoryPreserves: true,
	CategoryPlants:    true,
	CategoryOther:     true,
}

func ValidCategory(c Category) bool { return categories[c] }

// Listing is a seller's offering. Mutated only through listings.Lifecycle.
type Listing struct {
	ID            string          `json:"id"`
	SellerID      string          `json:"seller_id"`
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	Quantity      int             `json:"quantity"`
	Active        bool            `json:"active"`
	Description   string          `json:"description"`
	ImagePath     string          `json:"image_path,omitempty"`
	ThumbnailPath string          `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListingFields is the validated input for create/edit.
type ListingFields struct {
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

// Availability is the ledger view of one listing at read time.
type Availability struct {
	Quantity  int
	Active    bool
	UnitPrice decimal.Decimal
}

// CartLine is one cart entry; Qty is always > 0 for stored lines.
type CartLine struct {
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
}

type Order struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyer_id"`
	Total     decimal.Decimal `json:"total_price"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []OrderItem     `json:"items,omitempty"`
}

// OrderItem snapshots the unit price at checkout time; immutable afterwards
// even if the listing changes price or is deleted.
type OrderItem struct {
	OrderID   string          `json:"order_id"`
	ListingID string          `json:"listing_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Receipt struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
