package cart

import (
	"context"
	"testing"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	user    uuid.UUID
	product models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cart_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		ProductRepo:  product.NewRepository(conn),
		WishlistRepo: wishlist.NewRepository(conn),
		Tx:           db.Wrap(conn),
	})
	require.NoError(t, err)

	p := models.Product{
		SellerID:     uuid.New(),
		Name:         "Trail Runner",
		Description:  "Lightweight trail running shoe",
		Images:       []string{"front.jpg", "side.jpg", "back.jpg", "sole.jpg"},
		Colors:       []string{"black"},
		CategoryName: "shoes",
	}
	require.NoError(t, conn.Create(&p).Error)
	return &fixture{conn: conn, svc: svc, user: uuid.New(), product: p}
}

func (f *fixture) addSize(t *testing.T, label string, price string, qty int, discount string, available bool) models.Size {
	t.Helper()
	s := models.Size{
		ProductID: f.product.ID,
		Size:      label,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Discount:  decimal.RequireFromString(discount),
		Available: available,
	}
	require.NoError(t, f.conn.Create(&s).Error)
	if !available {
		require.NoError(t, f.conn.Model(&models.Size{}).Where("id = ?", s.ID).Update("available", false).Error)
	}
	return s
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestGetCartCreatesEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	require.Empty(t, first.Items)
	require.True(t, first.Total.IsZero())

	second, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestAddItemEnrichesAndMergesUpToStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSize(t, "42", "100.00", 5, "10", true)

	cart, err := f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "42", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	line := cart.Items[0]
	require.Equal(t, "Trail Runner", line.ProductName)
	require.Equal(t, "front.jpg", line.Image)
	require.True(t, line.Available)
	require.Equal(t, "180", line.Subtotal.String())
	require.Equal(t, 2, cart.TotalItems)

	cart, err = f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "42", Quantity: 4})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 5, cart.Items[0].Quantity)
	require.Equal(t, "450", cart.Total.String())
}

func TestAddItemRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSize(t, "40", "50.00", 2, "0", true)
	f.addSize(t, "41", "50.00", 3, "0", false)

	cases := []struct {
		name  string
		input AddItemInput
		code  pkgerrors.Code
		msg   string
	}{
		{"negative quantity", AddItemInput{ProductID: f.product.ID, Size: "40", Quantity: -1}, pkgerrors.CodeValidation, "Quantity must be at least 1"},
		{"unknown product", AddItemInput{ProductID: uuid.New(), Size: "40", Quantity: 1}, pkgerrors.CodeNotFound, "Product not found"},
		{"unknown size", AddItemInput{ProductID: f.product.ID, Size: "39", Quantity: 1}, pkgerrors.CodeNotFound, "Size not found for this product"},
		{"unavailable size", AddItemInput{ProductID: f.product.ID, Size: "41", Quantity: 1}, pkgerrors.CodeUnavailable, "This size is currently unavailable"},
		{"over stock", AddItemInput{ProductID: f.product.ID, Size: "40", Quantity: 3}, pkgerrors.CodeUnavailable, "Not enough inventory available. Only 2 items in stock."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AddItem(ctx, f.user, tc.input)
			requireCode(t, err, tc.code)
			require.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSize(t, "M", "20.00", 4, "0", true)

	cart, err := f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.svc.UpdateItem(ctx, f.user, itemID, UpdateItemInput{Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, 3, cart.Items[0].Quantity)

	_, err = f.svc.UpdateItem(ctx, f.user, itemID, UpdateItemInput{Quantity: 0})
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.svc.UpdateItem(ctx, f.user, itemID, UpdateItemInput{Quantity: 9})
	requireCode(t, err, pkgerrors.CodeUnavailable)

	// another user cannot reach the line
	_, err = f.svc.UpdateItem(ctx, uuid.New(), itemID, UpdateItemInput{Quantity: 1})
	requireCode(t, err, pkgerrors.CodeNotFound)

	cart, err = f.svc.RemoveItem(ctx, f.user, itemID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	_, err = f.svc.RemoveItem(ctx, f.user, itemID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSize(t, "S", "10.00", 4, "0", true)
	f.addSize(t, "L", "12.00", 4, "0", true)

	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "S", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "L", Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.Clear(ctx, f.user)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0, cart.TotalItems)
}

func TestMoveToWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSize(t, "S", "10.00", 4, "0", true)

	cart, err := f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "S", Quantity: 1})
	require.NoError(t, err)

	cart, err = f.svc.MoveToWishlist(ctx, f.user, cart.Items[0].ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	var count int64
	require.NoError(t, f.conn.Model(&models.WishlistItem{}).Where("user_id = ? AND product_id = ?", f.user, f.product.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// moving a second line of an already wishlisted product keeps a single entry
	cart, err = f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "S", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.MoveToWishlist(ctx, f.user, cart.Items[0].ID)
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.WishlistItem{}).Where("user_id = ?", f.user).Count(&count).Error)
	require.EqualValues(t, 1, count)

	_, err = f.svc.MoveToWishlist(ctx, f.user, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCheckInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	small := f.addSize(t, "S", "10.00", 3, "0", true)
	large := f.addSize(t, "L", "10.00", 3, "0", true)

	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "S", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ProductID: f.product.ID, Size: "L", Quantity: 1})
	require.NoError(t, err)

	check, err := f.svc.CheckInventory(ctx, f.user)
	require.NoError(t, err)
	require.True(t, check.Valid)
	require.Equal(t, inventoryOKMessage, check.Message)
	require.Empty(t, check.OutOfStockItems)

	// stock drops below the request and the other size disappears
	require.NoError(t, f.conn.Model(&models.Size{}).Where("id = ?", small.ID).Update("quantity", 1).Error)
	require.NoError(t, f.conn.Delete(&models.Size{}, "id = ?", large.ID).Error)

	check, err = f.svc.CheckInventory(ctx, f.user)
	require.NoError(t, err)
	require.False(t, check.Valid)
	require.Equal(t, inventoryFailureMessage, check.Message)
	require.Len(t, check.OutOfStockItems, 2)

	var stock int
	require.NoError(t, f.conn.Model(&models.Size{}).Select("quantity").Where("id = ?", small.ID).Scan(&stock).Error)
	require.Equal(t, 1, stock)

	cart, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	for _, line := range cart.Items {
		require.False(t, line.Available)
	}
}
