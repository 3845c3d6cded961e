package product

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together all catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
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

// CreateProduct inserts the product together with its sizes.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDetail loads the product with sizes ordered by label.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// NameTaken reports whether sellerID already owns a product called name,
// ignoring excludeID when set.
func (r *Repository) NameTaken(ctx context.Context, sellerID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("seller_id = ? AND name = ?", sellerID, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteProduct removes the product and every row hanging off it.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	for _, dependent := range []any{&models.CartItem{}, &models.WishlistItem{}, &models.Review{}, &models.Size{}} {
		if err := db.Where("product_id = ?", id).Delete(dependent).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&models.Product{}).Error
}

// List returns a page of products with sizes plus the unpaginated total.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.Category != "" {
		query = query.Where("category_name = ?", filters.Category)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+filters.Query+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := query.
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC") }).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) ListSizes(ctx context.Context, productID uuid.UUID) ([]models.Size, error) {
	var sizes []models.Size
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("size ASC").
		Find(&sizes).Error
	return sizes, err
}

func (r *Repository) FindSize(ctx context.Context, productID, sizeID uuid.UUID) (*models.Size, error) {
	var size models.Size
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", sizeID, productID).
		First(&size).Error
	if err != nil {
		return nil, err
	}
	return &size, nil
}

// FindSizeByLabel resolves a size by its label within a product.
func (r *Repository) FindSizeByLabel(ctx context.Context, productID uuid.UUID, label string) (*models.Size, error) {
	var size models.Size
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND size = ?", productID, label).
		First(&size).Error
	if err != nil {
		return nil, err
	}
	return &size, nil
}

// SizesByKey loads the sizes for the given product ids keyed by product and label.
func (r *Repository) SizesByKey(ctx context.Context, productIDs []uuid.UUID) (map[SizeKey]models.Size, error) {
	out := make(map[SizeKey]models.Size)
	if len(productIDs) == 0 {
		return out, nil
	}
	var sizes []models.Size
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&sizes).Error; err != nil {
		return nil, err
	}
	for _, s := range sizes {
		out[SizeKey{ProductID: s.ProductID, Size: s.Size}] = s
	}
	return out, nil
}

// ProductsByID loads products without associations.
func (r *Repository) ProductsByID(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) UpdateSize(ctx context.Context, sizeID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Size{}).Where("id = ?", sizeID).Updates(updates).Error
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

type reviewStatsRow struct {
	ProductID uuid.UUID
	Average   float64
	Total     int64
}

// ReviewStats aggregates rating average and count per product.
func (r *Repository) ReviewStats(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]ReviewStats, error) {
	out := make(map[uuid.UUID]ReviewStats, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []reviewStatsRow
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS total").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = ReviewStats{AverageRating: row.Average, TotalReviews: row.Total}
	}
	return out, nil
}
