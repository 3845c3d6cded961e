package products

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubProductService struct {
	productsvc.Service
	list        func(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductList, error)
	create      func(ctx context.Context, userID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error)
	markUnavail func(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*productsvc.SizeDTO, error)
	addReview   func(ctx context.Context, userID, productID uuid.UUID, input productsvc.ReviewInput) (*productsvc.ReviewDTO, error)
}

func (s *stubProductService) ListProducts(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductList, error) {
	return s.list(ctx, input)
}

func (s *stubProductService) CreateProduct(ctx context.Context, userID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return s.create(ctx, userID, input)
}

func (s *stubProductService) MarkSizeUnavailable(ctx context.Context, userID uuid.UUID, role string, productID, sizeID uuid.UUID) (*productsvc.SizeDTO, error) {
	return s.markUnavail(ctx, userID, role, productID, sizeID)
}

func (s *stubProductService) AddReview(ctx context.Context, userID, productID uuid.UUID, input productsvc.ReviewInput) (*productsvc.ReviewDTO, error) {
	return s.addReview(ctx, userID, productID, input)
}

func withActor(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(middleware.WithRole(ctx, role))
}

func TestListParsesFilters(t *testing.T) {
	sellerID := uuid.New()
	svc := &stubProductService{
		list: func(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductList, error) {
			require.Equal(t, "shirts", input.Filters.Category)
			require.Equal(t, "linen", input.Filters.Query)
			require.NotNil(t, input.Filters.SellerID)
			require.Equal(t, sellerID, *input.Filters.SellerID)
			require.Equal(t, 3, input.Pagination.Page)
			require.Equal(t, 20, input.Pagination.Limit)
			return &productsvc.ProductList{CurrentPage: 3}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=shirts&q=Linen&page=3&limit=20&sellerId="+sellerID.String(), nil)
	rec := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListRejectsBadSeller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?sellerId=nope", nil)
	rec := httptest.NewRecorder()

	List(&stubProductService{}, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReturns201(t *testing.T) {
	sellerID := uuid.New()
	svc := &stubProductService{
		create: func(ctx context.Context, userID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
			require.Equal(t, sellerID, userID)
			require.Len(t, input.Sizes, 1)
			require.Equal(t, "120", input.Sizes[0].Price.String())
			return &productsvc.ProductDTO{ID: uuid.New(), SellerID: userID, Name: input.Name}, nil
		},
	}
	body := `{"name":"Linen shirt","description":"A breathable linen shirt","images":["a","b","c","d"],` +
		`"colors":["white"],"categoryName":"shirts","sizes":[{"size":"M","price":"120","quantity":4,"discount":"0"}]}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)), sellerID, enums.RoleSeller)
	rec := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestMarkSizeUnavailableForwardsRole(t *testing.T) {
	productID := uuid.New()
	sizeID := uuid.New()
	svc := &stubProductService{
		markUnavail: func(ctx context.Context, userID uuid.UUID, role string, pid, sid uuid.UUID) (*productsvc.SizeDTO, error) {
			require.Equal(t, enums.RoleAdmin, role)
			require.Equal(t, productID, pid)
			require.Equal(t, sizeID, sid)
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Size can only be marked unavailable when expired or out of stock")
		},
	}
	r := chi.NewRouter()
	r.Patch("/api/v1/products/{productId}/sizes/{sizeId}/unavailable", MarkSizeUnavailable(svc, nil))

	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/v1/products/"+productID.String()+"/sizes/"+sizeID.String()+"/unavailable", nil), uuid.New(), enums.RoleAdmin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddReviewValidatesRating(t *testing.T) {
	svc := &stubProductService{
		addReview: func(ctx context.Context, userID, productID uuid.UUID, input productsvc.ReviewInput) (*productsvc.ReviewDTO, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	productID := uuid.New()
	r := chi.NewRouter()
	r.Post("/api/v1/products/{productId}/reviews", AddReview(svc, nil))

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID.String()+"/reviews",
		strings.NewReader(`{"rating":9,"feedback":"great"}`)), uuid.New(), enums.RoleBuyer)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
