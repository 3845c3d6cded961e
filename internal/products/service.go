package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	minImages       = 4
	minNameLen      = 2
	maxNameLen      = 100
	minDescription  = 10
	maxDiscountPct  = 100
	minReviewRating = 1
	maxReviewRating = 5
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, userID uuid.UUID, role string, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, userID uuid.UUID, role string, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	ListSizes(ctx context.Context, productID uuid.UUID) ([]SizeDTO, error)
	UpdateSize(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID, input UpdateSizeInput) (*SizeDTO, error)
	MarkSizeUnavailable(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*SizeDTO, error)
	MarkSizeAvailable(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*SizeDTO, error)
	AddReview(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
}

type service struct {
	repo *Repository
	tx   db.TxRunner
	now  func() time.Time
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	now := s.now()
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.CategoryName = strings.TrimSpace(input.CategoryName)
	if err := validateCreate(input, now); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:     userID,
		Name:         input.Name,
		Description:  input.Description,
		Images:       input.Images,
		Colors:       input.Colors,
		CategoryName: input.CategoryName,
	}
	for _, in := range input.Sizes {
		product.Sizes = append(product.Sizes, models.Size{
			Size:       strings.TrimSpace(in.Size),
			Price:      in.Price,
			Quantity:   in.Quantity,
			Discount:   in.Discount,
			ExpiryDate: in.ExpiryDate,
			Available:  in.Quantity > 0,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, userID, input.Name, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product name")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "You already have a product with this name")
		}
		if err := repo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "ux_products_seller_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "You already have a product with this name")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toProductDTO(*product, ReviewStats{}, now)
	return &dto, nil
}

func validateCreate(input CreateProductInput, now time.Time) error {
	if n := utf8.RuneCountInString(input.Name); n < minNameLen || n > maxNameLen {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Product name must be between %d and %d characters", minNameLen, maxNameLen)
	}
	if utf8.RuneCountInString(input.Description) < minDescription {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Description must be at least %d characters", minDescription)
	}
	if input.CategoryName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Category is required")
	}
	if len(input.Images) < minImages {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "At least %d images are required", minImages)
	}
	if len(input.Colors) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "At least one color is required")
	}
	if len(input.Sizes) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "At least one size is required")
	}
	seen := make(map[string]struct{}, len(input.Sizes))
	for _, size := range input.Sizes {
		label := strings.TrimSpace(size.Size)
		if label == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "Each size must have a label")
		}
		if _, dup := seen[label]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "Duplicate size %s", label)
		}
		seen[label] = struct{}{}
		if err := validateSizeValues(&size.Price, &size.Quantity, &size.Discount, size.ExpiryDate, now); err != nil {
			return err
		}
	}
	return nil
}

func validateSizeValues(price *decimal.Decimal, qty *int, discount *decimal.Decimal, expiry *time.Time, now time.Time) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Price must be zero or more")
	}
	if qty != nil && *qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be zero or more")
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(maxDiscountPct))) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Discount must be between 0 and 100")
	}
	if expiry != nil && !expiry.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Expiry date must be in the future")
	}
	return nil
}

// loadOwned fetches the product and checks that the caller owns it or is an admin.
func (s *service) loadOwned(ctx context.Context, repo *Repository, userID uuid.UUID, role string, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if role != enums.RoleAdmin && product.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to modify this product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, userID uuid.UUID, role string, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Product name must be between %d and %d characters", minNameLen, maxNameLen)
		}
		updates["name"] = name
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if utf8.RuneCountInString(desc) < minDescription {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Description must be at least %d characters", minDescription)
		}
		updates["description"] = desc
	}
	if input.Images != nil {
		if len(*input.Images) < minImages {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "At least %d images are required", minImages)
		}
		updates["images"] = jsonColumn(*input.Images)
	}
	if input.Colors != nil {
		if len(*input.Colors) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one color is required")
		}
		updates["colors"] = jsonColumn(*input.Colors)
	}
	if input.CategoryName != nil {
		category := strings.TrimSpace(*input.CategoryName)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category is required")
		}
		updates["category_name"] = category
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, userID, role, productID)
		if err != nil {
			return err
		}
		if name, ok := updates["name"].(string); ok {
			taken, err := repo.NameTaken(ctx, product.SellerID, name, &product.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product name")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "You already have a product with this name")
			}
		}
		if err := repo.UpdateProduct(ctx, product.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) DeleteProduct(ctx context.Context, userID uuid.UUID, role string, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, userID, role, productID)
		if err != nil {
			return err
		}
		if err := repo.DeleteProduct(ctx, product.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	stats, err := s.repo.ReviewStats(ctx, []uuid.UUID{product.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review stats")
	}
	reviews, err := s.repo.ListReviews(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reviews")
	}

	dto := toProductDTO(*product, stats[product.ID], s.now())
	dto.Reviews = toReviewDTOs(reviews)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	params := input.Pagination.Normalize()
	input.Filters.Query = strings.ToLower(strings.TrimSpace(input.Filters.Query))

	rows, total, err := s.repo.List(ctx, input.Filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	stats, err := s.repo.ReviewStats(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review stats")
	}

	now := s.now()
	products := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		products = append(products, toProductDTO(row, stats[row.ID], now))
	}
	return &ProductList{
		Products:      products,
		TotalPages:    pagination.TotalPages(total, params.Limit),
		CurrentPage:   params.Page,
		TotalProducts: total,
	}, nil
}

func (s *service) ListSizes(ctx context.Context, productID uuid.UUID) ([]SizeDTO, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	sizes, err := s.repo.ListSizes(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sizes")
	}
	return toSizeDTOs(sizes, s.now()), nil
}

// mutateSize loads an owned size, lets decide compute the updates and applies them.
func (s *service) mutateSize(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID, decide func(size *models.Size, now time.Time) (map[string]any, error)) (*SizeDTO, error) {
	now := s.now()
	var result models.Size
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOwned(ctx, repo, userID, role, productID); err != nil {
			return err
		}
		size, err := repo.FindSize(ctx, productID, sizeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Size not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load size")
		}
		updates, err := decide(size, now)
		if err != nil {
			return err
		}
		if err := repo.UpdateSize(ctx, size.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update size")
		}
		fresh, err := repo.FindSize(ctx, productID, sizeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload size")
		}
		result = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toSizeDTO(result, now)
	return &dto, nil
}

func (s *service) UpdateSize(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID, input UpdateSizeInput) (*SizeDTO, error) {
	return s.mutateSize(ctx, userID, role, productID, sizeID, func(size *models.Size, now time.Time) (map[string]any, error) {
		if err := validateSizeValues(input.Price, input.Quantity, input.Discount, input.ExpiryDate, now); err != nil {
			return nil, err
		}
		updates := map[string]any{}
		if input.Price != nil {
			updates["price"] = *input.Price
		}
		if input.Quantity != nil {
			updates["quantity"] = *input.Quantity
			if *input.Quantity == 0 {
				updates["available"] = false
			}
		}
		if input.Discount != nil {
			updates["discount"] = *input.Discount
		}
		if input.ExpiryDate != nil {
			updates["expiry_date"] = *input.ExpiryDate
		}
		return updates, nil
	})
}

func (s *service) MarkSizeUnavailable(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*SizeDTO, error) {
	return s.mutateSize(ctx, userID, role, productID, sizeID, func(size *models.Size, now time.Time) (map[string]any, error) {
		if !size.Expired(now) && size.Quantity > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Size can only be marked unavailable when it is expired or out of stock")
		}
		return map[string]any{"available": false}, nil
	})
}

func (s *service) MarkSizeAvailable(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*SizeDTO, error) {
	return s.mutateSize(ctx, userID, role, productID, sizeID, func(size *models.Size, now time.Time) (map[string]any, error) {
		if size.Expired(now) || size.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Size must be in stock and not expired to be marked available")
		}
		return map[string]any{"available": true}, nil
	})
}

func (s *service) AddReview(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	if input.Rating < minReviewRating || input.Rating > maxReviewRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	feedback := strings.TrimSpace(input.Feedback)
	if feedback == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Feedback is required")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	review := &models.Review{UserID: userID, ProductID: productID, Rating: input.Rating, Feedback: feedback}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "ux_reviews_user_product") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "You have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	dtos := toReviewDTOs([]models.Review{*review})
	return &dtos[0], nil
}
