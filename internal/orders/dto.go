package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

func (a Actor) canAccess(order *models.Order) bool {
	return a.IsAdmin() || order.UserID == a.UserID
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	Items           []ItemInput
	ShippingAddress *types.ShippingAddress
	PaymentMethod   string
}

// ListFilters narrows the orders listing. Nil fields are ignored.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

// ListInput is the raw listing request; Status is dropped when invalid.
type ListInput struct {
	UserID *uuid.UUID
	Page   int
	Limit  int
	Status string
}

// UpdateStatusInput is an admin status change.
type UpdateStatusInput struct {
	OrderID      uuid.UUID
	Status       string
	TrackingInfo string
}

// ProductSummary is the catalog snippet attached to order lines.
type ProductSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Images []string  `json:"images"`
}

// OrderItemDTO is a frozen order line.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Reference       string                `json:"reference"`
	UserID          uuid.UUID             `json:"userId"`
	Items           []OrderItemDTO        `json:"items"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	PaymentStatus   enums.PaymentStatus   `json:"paymentStatus"`
	OrderStatus     enums.OrderStatus     `json:"orderStatus"`
	TrackingInfo    *string               `json:"trackingInfo,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// OrderList is a page of orders.
type OrderList struct {
	Orders      []OrderDTO `json:"orders"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	TotalOrders int64      `json:"totalOrders"`
}

// StatusStep is one entry of a tracking timeline.
type StatusStep struct {
	Status    enums.OrderStatus `json:"status"`
	Completed bool              `json:"completed"`
	Date      *time.Time        `json:"date"`
}

// DeliveryWindow is the estimated delivery range for shipped orders.
type DeliveryWindow struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Tracking is the buyer-facing progress view of an order.
type Tracking struct {
	OrderID           uuid.UUID         `json:"orderId"`
	Status            enums.OrderStatus `json:"status"`
	TrackingInfo      string            `json:"trackingInfo"`
	StatusHistory     []StatusStep      `json:"statusHistory"`
	EstimatedDelivery *DeliveryWindow   `json:"estimatedDelivery,omitempty"`
}

func toOrderDTO(order models.Order, products map[uuid.UUID]ProductSummary) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		dto := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Size:      item.Size,
			Color:     item.Color,
		}
		if summary, ok := products[item.ProductID]; ok {
			s := summary
			dto.Product = &s
		}
		items = append(items, dto)
	}
	return OrderDTO{
		ID:              order.ID,
		Reference:       order.Reference,
		UserID:          order.UserID,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		OrderStatus:     order.OrderStatus,
		TrackingInfo:    order.TrackingInfo,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
