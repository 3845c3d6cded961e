package wishlist

import (
	"time"

	"github.com/google/uuid"
)

// ProductSummary is the catalog snippet shown on a wishlist row.
type ProductSummary struct {
	ID           uuid.UUID `json:"id"`
	SellerID     uuid.UUID `json:"sellerId"`
	Name         string    `json:"name"`
	Images       []string  `json:"images"`
	CategoryName string    `json:"categoryName"`
}

// WishlistItemDTO wraps the product summary included in a wishlist row.
type WishlistItemDTO struct {
	Product ProductSummary `json:"product"`
	AddedAt time.Time      `json:"addedAt"`
}

// WishlistDTO is a user's full wishlist.
type WishlistDTO struct {
	Items []WishlistItemDTO `json:"items"`
	Total int               `json:"total"`
}
