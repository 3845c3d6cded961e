package wishlist

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internalwishlist "github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// shopperHandler is a wishlist handler body that runs once the caller is known.
type shopperHandler func(r *http.Request, userID uuid.UUID) (int, any, error)

// serve resolves the caller and renders whatever fn returns.
func serve(svc internalwishlist.Service, logg *logger.Logger, fn shopperHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}
		userID, err := middleware.UserUUIDFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, body, err := fn(r, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, body)
	}
}

// Get returns the caller's wishlist with product summaries; an empty
// wishlist is created on first read.
func Get(svc internalwishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request, userID uuid.UUID) (int, any, error) {
		list, err := svc.GetWishlist(r.Context(), userID)
		return http.StatusOK, list, err
	})
}

// AddItem adds a product. Adding one already present is a conflict.
func AddItem(svc internalwishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request, userID uuid.UUID) (int, any, error) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		list, err := svc.AddItem(r.Context(), userID, body.ProductID)
		return http.StatusCreated, list, err
	})
}

func RemoveItem(svc internalwishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request, userID uuid.UUID) (int, any, error) {
		productID, err := validators.ParseUUIDParam(r, "productId", "product id")
		if err != nil {
			return 0, nil, err
		}
		list, err := svc.RemoveItem(r.Context(), userID, productID)
		return http.StatusOK, list, err
	})
}
