package products

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// scope says which path and caller identifiers a handler needs.
type scope uint8

const (
	needProduct scope = 1 << iota
	needSize
	needActor
)

// target holds the identifiers a product request resolved to.
type target struct {
	actor   uuid.UUID
	role    string
	product uuid.UUID
	size    uuid.UUID
}

func resolve(r *http.Request, s scope) (target, error) {
	var (
		t   target
		err error
	)
	if s&needActor != 0 {
		if t.actor, err = middleware.UserUUIDFromContext(r.Context()); err != nil {
			return t, err
		}
		t.role = middleware.RoleFromContext(r.Context())
	}
	if s&needProduct != 0 {
		if t.product, err = validators.ParseUUIDParam(r, "productId", "product id"); err != nil {
			return t, err
		}
	}
	if s&needSize != 0 {
		if t.size, err = validators.ParseUUIDParam(r, "sizeId", "size id"); err != nil {
			return t, err
		}
	}
	return t, nil
}

// endpoint resolves s, runs fn and writes its result with status.
func endpoint(svc productsvc.Service, logg *logger.Logger, s scope, status int, fn func(r *http.Request, t target) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		t, err := resolve(r, s)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := fn(r, t)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}

func decode[T any](r *http.Request) (T, error) {
	var in T
	err := validators.DecodeJSONBody(r, &in)
	return in, err
}
