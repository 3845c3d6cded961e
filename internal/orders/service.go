package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referencePrefix   = "ORD-"
	referenceAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 8

	defaultTrackingInfo = "No tracking information available yet"

	deliveryMinDays = 5
	deliveryMaxDays = 7
)

// Service defines the order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error)
	Track(ctx context.Context, orderID uuid.UUID, actor Actor) (*Tracking, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Inventory Inventory
	Logger    *logger.Logger
	// StrictTransitions restricts admin updates to the next forward status.
	StrictTransitions bool
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory Inventory
	logg      *logger.Logger
	strict    bool
	reference func() string
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory reconciler required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	gen, err := nanoid.CustomASCII(referenceAlphabet, referenceLength)
	if err != nil {
		return nil, fmt.Errorf("order reference generator: %w", err)
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		inventory: params.Inventory,
		logg:      params.Logger,
		strict:    params.StrictTransitions,
		reference: func() string { return referencePrefix + gen() },
	}, nil
}

func validateCreate(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Order must contain at least one item")
	}
	if input.ShippingAddress == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Shipping address is required")
	}
	if missing := input.ShippingAddress.Missing(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Shipping address is required").
			WithDetails(map[string]any{"missing": missing})
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Payment method is required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 || strings.TrimSpace(item.Size) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "Each order item must have productId, quantity, and size")
		}
	}
	return nil
}

func unavailable(size, productName string) error {
	return pkgerrors.Newf(pkgerrors.CodeUnavailable, "Size %s for product %s is not available or not enough in stock", size, productName)
}

// Create validates the request, then resolves, prices and reserves every line
// inside one transaction. Any failing line rolls back all reservations.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		total := decimal.Zero
		lines := make([]models.OrderItem, 0, len(input.Items))

		for _, item := range input.Items {
			product, err := repo.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product with ID %s not found", item.ProductID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}

			size, err := repo.FindReservableSize(ctx, item.ProductID, item.Size, item.Quantity)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return unavailable(item.Size, product.Name)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load size")
			}

			total = total.Add(pricing.LineTotal(size.Price, size.Discount, item.Quantity))
			lines = append(lines, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     size.Price,
				Size:      item.Size,
				Color:     item.Color,
			})

			if err := s.inventory.Reserve(ctx, tx, item.ProductID, item.Size, item.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return unavailable(item.Size, product.Name)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve inventory")
			}
		}

		order := &models.Order{
			Reference:       s.reference(),
			UserID:          input.UserID,
			Items:           lines,
			TotalAmount:     pricing.RoundMoney(total),
			ShippingAddress: *input.ShippingAddress,
			PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
			PaymentStatus:   enums.PaymentStatusPending,
			OrderStatus:     enums.OrderStatusPending,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"reference": created.Reference,
		"items":     len(created.Items),
		"total":     created.TotalAmount.String(),
	})
	s.logg.Info(logCtx, "order created")

	dto := toOrderDTO(*created, nil)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*OrderList, error) {
	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()

	filters := ListFilters{UserID: input.UserID}
	if status, err := enums.ParseOrderStatus(strings.TrimSpace(input.Status)); err == nil {
		filters.Status = &status
	}

	rows, total, err := s.repo.ListOrders(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	products, err := s.productsOf(ctx, rows...)
	if err != nil {
		return nil, err
	}
	orders := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, toOrderDTO(row, products))
	}
	return &OrderList{
		Orders:      orders,
		TotalPages:  pagination.TotalPages(total, params.Limit),
		CurrentPage: params.Page,
		TotalOrders: total,
	}, nil
}

// productsOf loads the name and images of every product the orders reference.
func (s *service) productsOf(ctx context.Context, orders ...models.Order) (map[uuid.UUID]ProductSummary, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, order := range orders {
		for _, item := range order.Items {
			if _, dup := seen[item.ProductID]; dup {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	products, err := s.repo.ProductSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order products")
	}
	return products, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to view this order")
	}

	products, err := s.productsOf(ctx, *order)
	if err != nil {
		return nil, err
	}

	dto := toOrderDTO(*order, products)
	return &dto, nil
}

// checkTransition enforces the forward-only rule when strict mode is on.
func (s *service) checkTransition(current, target enums.OrderStatus) error {
	if current == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "Cannot update status for cancelled orders")
	}
	if !s.strict || current == target {
		return nil
	}
	if target == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "Use the cancel endpoint to cancel orders")
	}
	if next, ok := current.Next(); !ok || next != target {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "Cannot move order from %s to %s", current, target)
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid order status")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.checkTransition(order.OrderStatus, target); err != nil {
			return err
		}

		var tracking *string
		if info := strings.TrimSpace(input.TrackingInfo); info != "" {
			tracking = &info
		}
		changed, err := repo.UpdateStatus(ctx, order.ID, target, tracking)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if !changed {
			// lost a race with a cancel
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "Cannot update status for cancelled orders")
		}

		updated, err = s.loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "order_status", string(updated.OrderStatus)), "order status updated")

	dto := toOrderDTO(*updated, nil)
	return &dto, nil
}

// Cancel flips an open order to cancelled and returns every line's stock.
// The guarded status update makes concurrent cancels restore only once.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !actor.canAccess(order) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to cancel this order")
		}
		if !order.OrderStatus.Cancellable() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "Only pending or processing orders can be cancelled")
		}

		flipped, err := repo.CancelIfOpen(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "Only pending or processing orders can be cancelled")
		}

		for _, item := range order.Items {
			restored, err := s.inventory.Restore(ctx, tx, item.ProductID, item.Size, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore inventory")
			}
			if !restored {
				s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
					"product_id": item.ProductID.String(),
					"size":       item.Size,
				}), "size gone, skipping restore")
			}
		}

		cancelled, err = s.loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, cancelled.ID.String()), "order cancelled")

	dto := toOrderDTO(*cancelled, nil)
	return &dto, nil
}

func (s *service) Track(ctx context.Context, orderID uuid.UUID, actor Actor) (*Tracking, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to track this order")
	}
	return buildTracking(order), nil
}

func buildTracking(order *models.Order) *Tracking {
	status := order.OrderStatus
	created := order.CreatedAt
	updated := order.UpdatedAt

	step := func(s enums.OrderStatus, completed bool) StatusStep {
		out := StatusStep{Status: s, Completed: completed}
		if completed {
			at := updated
			out.Date = &at
		}
		return out
	}

	history := []StatusStep{
		{Status: enums.OrderStatusPending, Completed: true, Date: &created},
		step(enums.OrderStatusProcessing, status != enums.OrderStatusPending),
		step(enums.OrderStatusShipped, status != enums.OrderStatusPending && status != enums.OrderStatusProcessing),
		step(enums.OrderStatusDelivered, status == enums.OrderStatusDelivered),
	}

	tracking := &Tracking{
		OrderID:       order.ID,
		Status:        status,
		TrackingInfo:  defaultTrackingInfo,
		StatusHistory: history,
	}
	if order.TrackingInfo != nil && strings.TrimSpace(*order.TrackingInfo) != "" {
		tracking.TrackingInfo = *order.TrackingInfo
	}
	if status == enums.OrderStatusShipped {
		tracking.EstimatedDelivery = &DeliveryWindow{
			Min: updated.Add(deliveryMinDays * 24 * time.Hour),
			Max: updated.Add(deliveryMaxDays * 24 * time.Hour),
		}
	}
	return tracking
}
