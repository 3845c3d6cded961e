package wishlist

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists wishlist rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// AddItem inserts the row and reports false when it already existed.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	err := r.db.WithContext(ctx).Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error
	if err != nil {
		if db.IsUniqueViolation(err, "ux_wishlist_user_product") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveItem reports whether a row was deleted.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

type itemRow struct {
	ProductID    uuid.UUID
	SellerID     uuid.UUID
	Name         string
	Images       []string `gorm:"serializer:json"`
	CategoryName string
	AddedAt      time.Time
}

// ListItems returns the user's wishlist joined with product summaries,
// newest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]WishlistItemDTO, error) {
	var rows []itemRow
	err := r.db.WithContext(ctx).
		Table("wishlist_items AS w").
		Select("w.product_id, p.seller_id, p.name, p.images, p.category_name, w.created_at AS added_at").
		Joins("JOIN products p ON p.id = w.product_id").
		Where("w.user_id = ?", userID).
		Order("w.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]WishlistItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, WishlistItemDTO{
			Product: ProductSummary{
				ID:           row.ProductID,
				SellerID:     row.SellerID,
				Name:         row.Name,
				Images:       row.Images,
				CategoryName: row.CategoryName,
			},
			AddedAt: row.AddedAt,
		})
	}
	return items, nil
}
