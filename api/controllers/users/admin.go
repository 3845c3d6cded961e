package users

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	usersvc "github.com/angelmondragon/storefront-backend/internal/users"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func targetUser(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(r, "userId", "user id")
}

func List(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		page, err := pageOf(r)
		if err != nil {
			return nil, err
		}
		return svc.List(r.Context(), page)
	})
}

func ListByRole(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		roleName := strings.TrimSpace(chi.URLParam(r, "roleName"))
		if roleName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
		}
		page, err := pageOf(r)
		if err != nil {
			return nil, err
		}
		return svc.ListByRole(r.Context(), roleName, page)
	})
}

func Get(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		userID, err := targetUser(r)
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), userID)
	})
}

// Delete removes a user together with their cart and wishlist. Admins cannot
// delete themselves.
func Delete(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		actorID, err := middleware.UserUUIDFromContext(r.Context())
		if err != nil {
			return nil, err
		}
		userID, err := targetUser(r)
		if err != nil {
			return nil, err
		}
		if err := svc.Delete(r.Context(), actorID, userID); err != nil {
			return nil, err
		}
		return map[string]string{"message": "User deleted successfully"}, nil
	})
}

func ChangeRole(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		userID, err := targetUser(r)
		if err != nil {
			return nil, err
		}
		var in usersvc.ChangeRoleInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.ChangeRole(r.Context(), userID, in)
	})
}

// UpdateStatus blocks or unblocks an account.
func UpdateStatus(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		userID, err := targetUser(r)
		if err != nil {
			return nil, err
		}
		var in usersvc.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), userID, in)
	})
}
