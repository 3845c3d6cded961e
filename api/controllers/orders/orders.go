package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type createOrderRequest struct {
	Items []internalorders.ItemInput `json:"items"`
	// Address completeness is reported by the service with its own message.
	ShippingAddress *types.ShippingAddress `json:"shippingAddress" validate:"-"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type updateStatusRequest struct {
	Status       string `json:"status"`
	TrackingInfo string `json:"trackingInfo"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID, err := middleware.UserUUIDFromContext(r.Context())
	if err != nil {
		return internalorders.Actor{}, err
	}
	return internalorders.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}, nil
}

// Create places an order and reserves its inventory in one transaction.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := middleware.UserUUIDFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			UserID:          userID,
			Items:           body.Items,
			ShippingAddress: body.ShippingAddress,
			PaymentMethod:   strings.TrimSpace(body.PaymentMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListAll returns every order. Admin only.
func ListAll(svc internalorders.Service, cfg config.OrdersConfig, logg *logger.Logger) http.HandlerFunc {
	return list(svc, cfg, logg, false)
}

// ListMine returns the caller's own orders.
func ListMine(svc internalorders.Service, cfg config.OrdersConfig, logg *logger.Logger) http.HandlerFunc {
	return list(svc, cfg, logg, true)
}

func list(svc internalorders.Service, cfg config.OrdersConfig, logg *logger.Logger, own bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		page, err := validators.ParsePage(r, cfg.DefaultPageSize, cfg.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.ListInput{
			Page:   page.Page,
			Limit:  page.Limit,
			Status: r.URL.Query().Get("status"),
		}
		if own {
			userID, err := middleware.UserUUIDFromContext(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.UserID = &userID
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Get returns one order with product summaries on its lines.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, actor internalorders.Actor) {
		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	})
}

// UpdateStatus moves an order along its lifecycle. Admin only.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, _ internalorders.Actor) {
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:      orderID,
			Status:       strings.TrimSpace(body.Status),
			TrackingInfo: strings.TrimSpace(body.TrackingInfo),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	})
}

// Cancel cancels a pending or processing order and restores its stock.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, actor internalorders.Actor) {
		order, err := svc.Cancel(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	})
}

func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, actor internalorders.Actor) {
		tracking, err := svc.Track(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracking)
	})
}

type orderHandler func(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, actor internalorders.Actor)

func withOrder(svc internalorders.Service, logg *logger.Logger, fn orderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		fn(w, r.WithContext(ctx), orderID, actor)
	}
}
