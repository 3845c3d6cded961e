package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemInput is a request to put a product size in the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size" validate:"required,notblank"`
	Quantity  int       `json:"quantity"`
	Color     string    `json:"color"`
}

// UpdateItemInput changes a line's quantity.
type UpdateItemInput struct {
	Quantity int `json:"quantity"`
}

// CartItemDTO is a cart line enriched with current catalog data.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Image       string          `json:"image"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Available   bool            `json:"available"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartDTO is the enriched cart.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Items      []CartItemDTO   `json:"items"`
	TotalItems int             `json:"totalItems"`
	Total      decimal.Decimal `json:"total"`
}

// OutOfStockItem describes a cart line that cannot currently be fulfilled.
type OutOfStockItem struct {
	ItemID            uuid.UUID `json:"itemId"`
	ProductID         uuid.UUID `json:"productId"`
	ProductName       string    `json:"productName"`
	Size              string    `json:"size"`
	RequestedQuantity int       `json:"requestedQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	Available         bool      `json:"available"`
}

// InventoryCheck is the read-only verdict on a cart.
type InventoryCheck struct {
	Valid           bool             `json:"valid"`
	Message         string           `json:"message"`
	OutOfStockItems []OutOfStockItem `json:"outOfStockItems"`
}
