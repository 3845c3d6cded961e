package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// line identifies the caller and, for item routes, the cart line addressed.
type line struct {
	user uuid.UUID
	item uuid.UUID
}

type cartCall func(r *http.Request, l line) (any, error)

// onCart answers every cart route with the cart as it stands afterwards.
func onCart(svc cartsvc.Service, logg *logger.Logger, itemRoute bool, call cartCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var (
			l   line
			err error
		)
		l.user, err = middleware.UserUUIDFromContext(ctx)
		if err == nil && itemRoute {
			l.item, err = validators.ParseUUIDParam(r, "itemId", "item id")
		}
		var out any
		if err == nil {
			out, err = call(r, l)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// Fetch returns the caller's cart, creating it on first access.
func Fetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, false, func(r *http.Request, l line) (any, error) {
		return svc.GetCart(r.Context(), l.user)
	})
}

// AddItem adds a product size, merging into an existing line for the same size.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, false, func(r *http.Request, l line) (any, error) {
		var in cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), l.user, in)
	})
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, false, func(r *http.Request, l line) (any, error) {
		return svc.Clear(r.Context(), l.user)
	})
}

// CheckInventory reports lines that can no longer be fulfilled. Read-only.
func CheckInventory(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, false, func(r *http.Request, l line) (any, error) {
		return svc.CheckInventory(r.Context(), l.user)
	})
}

func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, true, func(r *http.Request, l line) (any, error) {
		var in cartsvc.UpdateItemInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateItem(r.Context(), l.user, l.item, in)
	})
}

func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, true, func(r *http.Request, l line) (any, error) {
		return svc.RemoveItem(r.Context(), l.user, l.item)
	})
}

// MoveToWishlist drops the line and wishlists its product in one transaction.
func MoveToWishlist(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return onCart(svc, logg, true, func(r *http.Request, l line) (any, error) {
		return svc.MoveToWishlist(r.Context(), l.user, l.item)
	})
}
