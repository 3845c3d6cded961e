package products

import (
	"net/http"

	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Ownership checks live in the service: sellers may only touch their own
// products, admins may touch any.

// Create registers a product owned by the caller.
func Create(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor, http.StatusCreated, func(r *http.Request, t target) (any, error) {
		in, err := decode[productsvc.CreateProductInput](r)
		if err != nil {
			return nil, err
		}
		return svc.CreateProduct(r.Context(), t.actor, in)
	})
}

func Update(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct, http.StatusOK, func(r *http.Request, t target) (any, error) {
		in, err := decode[productsvc.UpdateProductInput](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateProduct(r.Context(), t.actor, t.role, t.product, in)
	})
}

func Delete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct, http.StatusOK, func(r *http.Request, t target) (any, error) {
		if err := svc.DeleteProduct(r.Context(), t.actor, t.role, t.product); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Product deleted successfully"}, nil
	})
}

func UpdateSize(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct|needSize, http.StatusOK, func(r *http.Request, t target) (any, error) {
		in, err := decode[productsvc.UpdateSizeInput](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateSize(r.Context(), t.actor, t.role, t.product, t.size, in)
	})
}

// MarkSizeUnavailable hides a size that is expired or out of stock.
func MarkSizeUnavailable(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct|needSize, http.StatusOK, func(r *http.Request, t target) (any, error) {
		return svc.MarkSizeUnavailable(r.Context(), t.actor, t.role, t.product, t.size)
	})
}

// MarkSizeAvailable re-lists a size that is in stock and not expired.
func MarkSizeAvailable(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, needActor|needProduct|needSize, http.StatusOK, func(r *http.Request, t target) (any, error) {
		return svc.MarkSizeAvailable(r.Context(), t.actor, t.role, t.product, t.size)
	})
}
