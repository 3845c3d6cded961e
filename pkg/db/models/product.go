package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a seller listing. Stock and price live on its sizes.
type Product struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SellerID     uuid.UUID `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:ux_products_seller_name,priority:1"`
	Name         string    `gorm:"column:name;not null;uniqueIndex:ux_products_seller_name,priority:2"`
	Description  string    `gorm:"column:description;not null"`
	Images       []string  `gorm:"column:images;type:jsonb;serializer:json;not null"`
	Colors       []string  `gorm:"column:colors;type:jsonb;serializer:json;not null"`
	CategoryName string    `gorm:"column:category_name;not null;index"`
	Sizes        []Size    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Reviews      []Review  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Size is one purchasable variant of a product and carries its own stock.
// Available is a cached flag; see Purchasable for the derived rule.
type Size struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_sizes_product_size,priority:1"`
	Size       string          `gorm:"column:size;not null;uniqueIndex:ux_sizes_product_size,priority:2"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Discount   decimal.Decimal `gorm:"column:discount;type:numeric(5,2);not null;default:0"`
	ExpiryDate *time.Time      `gorm:"column:expiry_date"`
	Available  bool            `gorm:"column:available;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Size) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Expired reports whether the size is past its expiry date at now.
func (s Size) Expired(now time.Time) bool {
	return s.ExpiryDate != nil && !s.ExpiryDate.After(now)
}

// Purchasable applies the derived availability rule.
func (s Size) Purchasable(now time.Time) bool {
	return s.Available && s.Quantity > 0 && !s.Expired(now)
}

// Review is a single buyer rating of a product.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product,priority:2"`
	Rating    int       `gorm:"column:rating;not null"`
	Feedback  string    `gorm:"column:feedback;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
