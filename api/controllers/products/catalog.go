package products

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const maxFilterLen = 100

func listFilters(r *http.Request) (productsvc.ListFilters, error) {
	query := r.URL.Query()
	filters := productsvc.ListFilters{
		Category: validators.SanitizeString(query.Get("category"), maxFilterLen),
		Query:    strings.ToLower(validators.SanitizeString(query.Get("q"), maxFilterLen)),
	}
	raw := strings.TrimSpace(query.Get("sellerId"))
	if raw == "" {
		return filters, nil
	}
	sellerID, err := uuid.Parse(raw)
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id")
	}
	filters.SellerID = &sellerID
	return filters, nil
}

// List returns a page of products filtered by category, seller or name.
func List(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, 0, http.StatusOK, func(r *http.Request, _ target) (any, error) {
		page, err := validators.ParsePage(r, pagination.DefaultLimit, pagination.MaxLimit)
		if err != nil {
			return nil, err
		}
		filters, err := listFilters(r)
		if err != nil {
			return nil, err
		}
		return svc.ListProducts(r.Context(), productsvc.ListProductsInput{Filters: filters, Pagination: page})
	})
}

func Get(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needProduct, http.StatusOK, func(r *http.Request, t target) (any, error) {
		return svc.GetProduct(r.Context(), t.product)
	})
}

func ListSizes(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needProduct, http.StatusOK, func(r *http.Request, t target) (any, error) {
		return svc.ListSizes(r.Context(), t.product)
	})
}

// AddReview records the caller's rating; one review per user and product.
func AddReview(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct, http.StatusCreated, func(r *http.Request, t target) (any, error) {
		in, err := decode[productsvc.ReviewInput](r)
		if err != nil {
			return nil, err
		}
		return svc.AddReview(r.Context(), t.actor, t.product, in)
	})
}
