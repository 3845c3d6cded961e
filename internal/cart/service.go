package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	inventoryOKMessage      = "All items are in stock"
	inventoryFailureMessage = "Some items in your cart are out of stock or have insufficient quantity"
)

// Service exposes cart operations for the authenticated buyer.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	MoveToWishlist(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	CheckInventory(ctx context.Context, userID uuid.UUID) (*InventoryCheck, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Repo         CartRepository
	ProductRepo  *product.Repository
	WishlistRepo *wishlist.Repository
	Tx           db.TxRunner
}

type service struct {
	repo     CartRepository
	products *product.Repository
	wishlist *wishlist.Repository
	tx       db.TxRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		products: params.ProductRepo,
		wishlist: params.WishlistRepo,
		tx:       params.Tx,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.enrich(ctx, cart)
}

// loadPurchasableSize resolves (productID, label) and checks the requested
// quantity fits the current stock.
func loadPurchasableSize(ctx context.Context, repo *product.Repository, productID uuid.UUID, label string, qty int) (*models.Size, error) {
	if _, err := repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	size, err := repo.FindSizeByLabel(ctx, productID, label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Size not found for this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load size")
	}
	if !size.Available {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "This size is currently unavailable")
	}
	if qty > size.Quantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeUnavailable, "Not enough inventory available. Only %d items in stock.", size.Quantity)
	}
	return size, nil
}

// AddItem puts a size in the cart. A line for the same product and size is
// merged, with the combined quantity capped at current stock.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	input.Size = strings.TrimSpace(input.Size)
	if input.ProductID == uuid.Nil || input.Size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product ID and size are required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	}

	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		products := s.products.WithTx(tx)

		var err error
		cart, err = repo.FindOrCreateByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		size, err := loadPurchasableSize(ctx, products, input.ProductID, input.Size, input.Quantity)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByKey(ctx, cart.ID, input.ProductID, input.Size)
		switch {
		case err == nil:
			merged := min(existing.Quantity+input.Quantity, size.Quantity)
			if err := repo.UpdateItemQuantity(ctx, existing.ID, merged); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := &models.CartItem{
				CartID:    cart.ID,
				ProductID: input.ProductID,
				Size:      input.Size,
				Quantity:  input.Quantity,
				Color:     strings.TrimSpace(input.Color),
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if _, err := loadPurchasableSize(ctx, s.products.WithTx(tx), item.ProductID, item.Size, input.Quantity); err != nil {
			return err
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) findOwnedItem(ctx context.Context, repo CartRepository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.GetCart(ctx, userID)
}

// MoveToWishlist saves the line's product to the wishlist (if not already
// there) and drops the line, atomically.
func (s *service) MoveToWishlist(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		wl := s.wishlist.WithTx(tx)
		exists, err := wl.Exists(ctx, userID, item.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check wishlist")
		}
		if !exists {
			if _, err := wl.AddItem(ctx, userID, item.ProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
			}
		}
		if _, err := repo.DeleteItem(ctx, item.CartID, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// CheckInventory reports lines whose size is gone, flagged unavailable or
// short of stock. It never writes.
func (s *service) CheckInventory(ctx context.Context, userID uuid.UUID) (*InventoryCheck, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	products, sizes, err := s.catalogFor(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	out := &InventoryCheck{OutOfStockItems: []OutOfStockItem{}}
	for _, item := range cart.Items {
		size, found := sizes[product.SizeKey{ProductID: item.ProductID, Size: item.Size}]
		if found && size.Available && size.Quantity >= item.Quantity {
			continue
		}
		entry := OutOfStockItem{
			ItemID:            item.ID,
			ProductID:         item.ProductID,
			ProductName:       products[item.ProductID].Name,
			Size:              item.Size,
			RequestedQuantity: item.Quantity,
		}
		if found {
			entry.AvailableQuantity = size.Quantity
			entry.Available = size.Available
		}
		out.OutOfStockItems = append(out.OutOfStockItems, entry)
	}

	out.Valid = len(out.OutOfStockItems) == 0
	out.Message = inventoryOKMessage
	if !out.Valid {
		out.Message = inventoryFailureMessage
	}
	return out, nil
}

func (s *service) catalogFor(ctx context.Context, items []models.CartItem) (map[uuid.UUID]models.Product, map[product.SizeKey]models.Size, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.ProductsByID(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	sizes, err := s.products.SizesByKey(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart sizes")
	}
	return products, sizes, nil
}

func (s *service) enrich(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	products, sizes, err := s.catalogFor(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	dto := &CartDTO{ID: cart.ID, UserID: cart.UserID, Items: make([]CartItemDTO, 0, len(cart.Items))}
	total := decimal.Zero
	for _, item := range cart.Items {
		line := CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Price:     decimal.Zero,
			Discount:  decimal.Zero,
			Subtotal:  decimal.Zero,
		}
		if p, ok := products[item.ProductID]; ok {
			line.ProductName = p.Name
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
		}
		if size, ok := sizes[product.SizeKey{ProductID: item.ProductID, Size: item.Size}]; ok {
			line.Price = size.Price
			line.Discount = size.Discount
			line.Available = size.Available && size.Quantity >= item.Quantity
			line.Subtotal = pricing.RoundMoney(pricing.LineTotal(size.Price, size.Discount, item.Quantity))
		}
		total = total.Add(line.Subtotal)
		dto.TotalItems += item.Quantity
		dto.Items = append(dto.Items, line)
	}
	dto.Total = pricing.RoundMoney(total)
	return dto, nil
}
