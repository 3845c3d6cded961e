package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and the catalog rows
// an order reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindReservableSize(ctx context.Context, productID uuid.UUID, size string, qty int) (*models.Size, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	ProductSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]ProductSummary, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, trackingInfo *string) (bool, error)
	CancelIfOpen(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Inventory reserves and returns size stock inside the order transaction.
type Inventory interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
