package product

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:products_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return fixedNow }
	return impl, conn
}

func validInput() CreateProductInput {
	return CreateProductInput{
		Name:         "Linen Shirt",
		Description:  "Breathable linen shirt for summer",
		Images:       []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg"},
		Colors:       []string{"sand", "navy"},
		CategoryName: "shirts",
		Sizes: []SizeInput{
			{Size: "M", Price: decimal.NewFromInt(45), Quantity: 10, Discount: decimal.NewFromInt(5)},
			{Size: "L", Price: decimal.NewFromInt(45), Quantity: 0},
		},
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, pkgerrors.As(err).Code(), "error: %v", err)
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()

	product, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)
	require.Equal(t, seller, product.SellerID)
	require.Len(t, product.Sizes, 2)

	bySize := map[string]SizeDTO{}
	for _, s := range product.Sizes {
		bySize[s.Size] = s
	}
	require.True(t, bySize["M"].Available)
	require.False(t, bySize["L"].Available, "empty sizes start unavailable")

	_, err = svc.CreateProduct(ctx, seller, validInput())
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.CreateProduct(ctx, uuid.New(), validInput())
	require.NoError(t, err, "name is unique per seller only")
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	past := fixedNow.Add(-time.Hour)

	cases := map[string]func(*CreateProductInput){
		"short name":     func(in *CreateProductInput) { in.Name = "x" },
		"short desc":     func(in *CreateProductInput) { in.Description = "short" },
		"few images":     func(in *CreateProductInput) { in.Images = in.Images[:3] },
		"no colors":      func(in *CreateProductInput) { in.Colors = nil },
		"no sizes":       func(in *CreateProductInput) { in.Sizes = nil },
		"negative price": func(in *CreateProductInput) { in.Sizes[0].Price = decimal.NewFromInt(-1) },
		"negative qty":   func(in *CreateProductInput) { in.Sizes[0].Quantity = -1 },
		"discount > 100": func(in *CreateProductInput) { in.Sizes[0].Discount = decimal.NewFromInt(101) },
		"past expiry":    func(in *CreateProductInput) { in.Sizes[0].ExpiryDate = &past },
		"duplicate size": func(in *CreateProductInput) { in.Sizes[1].Size = "M" },
		"blank label":    func(in *CreateProductInput) { in.Sizes[0].Size = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := svc.CreateProduct(context.Background(), uuid.New(), input)
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestUpdateAndDeleteRequireOwnership(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()

	product, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)

	newName := "Linen Shirt v2"
	_, err = svc.UpdateProduct(ctx, uuid.New(), enums.RoleSeller, product.ID, UpdateProductInput{Name: &newName})
	requireCode(t, err, pkgerrors.CodeForbidden)

	images := []string{"a", "b", "c", "d", "e"}
	updated, err := svc.UpdateProduct(ctx, seller, enums.RoleSeller, product.ID, UpdateProductInput{Name: &newName, Images: &images})
	require.NoError(t, err)
	require.Equal(t, newName, updated.Name)
	require.Equal(t, images, updated.Images)

	buyer := uuid.New()
	require.NoError(t, conn.Create(&models.WishlistItem{UserID: buyer, ProductID: product.ID}).Error)
	_, err = svc.AddReview(ctx, buyer, product.ID, ReviewInput{Rating: 4, Feedback: "nice"})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, uuid.New(), enums.RoleSeller, product.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	require.NoError(t, svc.DeleteProduct(ctx, uuid.New(), enums.RoleAdmin, product.ID))

	for _, model := range []any{&models.Product{}, &models.Size{}, &models.Review{}, &models.WishlistItem{}} {
		var count int64
		require.NoError(t, conn.Model(model).Count(&count).Error)
		require.Zero(t, count, "%T should be gone", model)
	}

	_, err = svc.GetProduct(ctx, product.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkSizeAvailability(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()

	product, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)
	var stocked, empty SizeDTO
	for _, s := range product.Sizes {
		if s.Size == "M" {
			stocked = s
		} else {
			empty = s
		}
	}

	_, err = svc.MarkSizeUnavailable(ctx, seller, enums.RoleSeller, product.ID, stocked.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.MarkSizeAvailable(ctx, seller, enums.RoleSeller, product.ID, empty.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	qty := 3
	_, err = svc.UpdateSize(ctx, seller, enums.RoleSeller, product.ID, empty.ID, UpdateSizeInput{Quantity: &qty})
	require.NoError(t, err)
	got, err := svc.MarkSizeAvailable(ctx, seller, enums.RoleSeller, product.ID, empty.ID)
	require.NoError(t, err)
	require.True(t, got.Available)
	require.True(t, got.Purchasable)

	past := fixedNow.Add(-time.Hour)
	require.NoError(t, conn.Model(&models.Size{}).Where("id = ?", stocked.ID).Update("expiry_date", past).Error)
	got, err = svc.MarkSizeUnavailable(ctx, seller, enums.RoleSeller, product.ID, stocked.ID)
	require.NoError(t, err)
	require.False(t, got.Available)

	zero := 0
	got, err = svc.UpdateSize(ctx, seller, enums.RoleSeller, product.ID, empty.ID, UpdateSizeInput{Quantity: &zero})
	require.NoError(t, err)
	require.False(t, got.Available)

	_, err = svc.UpdateSize(ctx, seller, enums.RoleSeller, product.ID, uuid.New(), UpdateSizeInput{Quantity: &zero})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestReviewsAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, uuid.New(), validInput())
	require.NoError(t, err)

	buyer := uuid.New()
	_, err = svc.AddReview(ctx, buyer, product.ID, ReviewInput{Rating: 6, Feedback: "wow"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddReview(ctx, buyer, product.ID, ReviewInput{Rating: 5, Feedback: "great fit"})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, buyer, product.ID, ReviewInput{Rating: 1, Feedback: "changed my mind"})
	requireCode(t, err, pkgerrors.CodeConflict)
	_, err = svc.AddReview(ctx, uuid.New(), product.ID, ReviewInput{Rating: 2, Feedback: "runs small"})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, buyer, uuid.New(), ReviewInput{Rating: 3, Feedback: "?"})
	requireCode(t, err, pkgerrors.CodeNotFound)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ReviewStats.TotalReviews)
	require.InDelta(t, 3.5, got.ReviewStats.AverageRating, 0.001)
	require.Len(t, got.Reviews, 2)
}

func TestListProductsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()

	for _, name := range []string{"Linen Shirt", "Oxford Shirt", "Denim Jacket"} {
		input := validInput()
		input.Name = name
		if name == "Denim Jacket" {
			input.CategoryName = "outerwear"
		}
		_, err := svc.CreateProduct(ctx, seller, input)
		require.NoError(t, err)
	}
	_, err := svc.CreateProduct(ctx, uuid.New(), validInput())
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Page: 1, Limit: 3}})
	require.NoError(t, err)
	require.EqualValues(t, 4, all.TotalProducts)
	require.Equal(t, 2, all.TotalPages)
	require.Len(t, all.Products, 3)

	shirts, err := svc.ListProducts(ctx, ListProductsInput{Filters: ListFilters{Category: "shirts", SellerID: &seller}})
	require.NoError(t, err)
	require.EqualValues(t, 2, shirts.TotalProducts)

	search, err := svc.ListProducts(ctx, ListProductsInput{Filters: ListFilters{Query: "Denim"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, search.TotalProducts)

	sizes, err := svc.ListSizes(ctx, search.Products[0].ID)
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	_, err = svc.ListSizes(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}
