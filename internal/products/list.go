package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category string
	SellerID *uuid.UUID
	// Query is a lower-cased substring matched against the product name.
	Query string
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ProductList wraps one page of products.
type ProductList struct {
	Products      []ProductDTO `json:"products"`
	TotalPages    int          `json:"totalPages"`
	CurrentPage   int          `json:"currentPage"`
	TotalProducts int64        `json:"totalProducts"`
}

// SizeKey identifies a size by product and label, the way carts and orders
// reference it.
type SizeKey struct {
	ProductID uuid.UUID
	Size      string
}
