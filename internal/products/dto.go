package product

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SizeInput describes one size on create.
type SizeInput struct {
	Size       string          `json:"size" validate:"required,notblank"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	Discount   decimal.Decimal `json:"discount"`
	ExpiryDate *time.Time      `json:"expiryDate"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string      `json:"name" validate:"required,notblank"`
	Description  string      `json:"description" validate:"required,notblank"`
	Images       []string    `json:"images"`
	Colors       []string    `json:"colors"`
	CategoryName string      `json:"categoryName" validate:"required,notblank,max=100"`
	Sizes        []SizeInput `json:"sizes"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Images       *[]string `json:"images"`
	Colors       *[]string `json:"colors"`
	CategoryName *string   `json:"categoryName"`
}

// UpdateSizeInput holds optional mutation values for a size.
type UpdateSizeInput struct {
	Price      *decimal.Decimal `json:"price"`
	Quantity   *int             `json:"quantity"`
	Discount   *decimal.Decimal `json:"discount"`
	ExpiryDate *time.Time       `json:"expiryDate"`
}

// ReviewInput is a buyer review.
type ReviewInput struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"required,notblank"`
}

// SizeDTO exposes a size with its derived purchasability.
type SizeDTO struct {
	ID          uuid.UUID       `json:"id"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
	ExpiryDate  *time.Time      `json:"expiryDate,omitempty"`
	Available   bool            `json:"available"`
	Purchasable bool            `json:"purchasable"`
}

// ReviewStats summarises ratings for a product.
type ReviewStats struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int64   `json:"totalReviews"`
}

// ReviewDTO is one review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID           uuid.UUID   `json:"id"`
	SellerID     uuid.UUID   `json:"sellerId"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Images       []string    `json:"images"`
	Colors       []string    `json:"colors"`
	CategoryName string      `json:"categoryName"`
	Sizes        []SizeDTO   `json:"sizes"`
	ReviewStats  ReviewStats `json:"reviewStats"`
	Reviews      []ReviewDTO `json:"reviews,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func toSizeDTO(size models.Size, now time.Time) SizeDTO {
	return SizeDTO{
		ID:          size.ID,
		Size:        size.Size,
		Price:       size.Price,
		Quantity:    size.Quantity,
		Discount:    size.Discount,
		ExpiryDate:  size.ExpiryDate,
		Available:   size.Available,
		Purchasable: size.Purchasable(now),
	}
}

func toSizeDTOs(sizes []models.Size, now time.Time) []SizeDTO {
	out := make([]SizeDTO, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, toSizeDTO(s, now))
	}
	return out
}

func toProductDTO(product models.Product, stats ReviewStats, now time.Time) ProductDTO {
	return ProductDTO{
		ID:           product.ID,
		SellerID:     product.SellerID,
		Name:         product.Name,
		Description:  product.Description,
		Images:       product.Images,
		Colors:       product.Colors,
		CategoryName: product.CategoryName,
		Sizes:        toSizeDTOs(product.Sizes, now),
		ReviewStats:  stats,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

func toReviewDTOs(reviews []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, ReviewDTO{ID: r.ID, UserID: r.UserID, Rating: r.Rating, Feedback: r.Feedback, CreatedAt: r.CreatedAt})
	}
	return out
}

// jsonColumn encodes a string slice for map-based updates, which bypass the
// model's json serializer.
func jsonColumn(values []string) string {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return string(raw)
}
