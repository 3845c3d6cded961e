package users

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	usersvc "github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Me returns the signed-in user's profile.
func Me(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		userID, err := middleware.UserUUIDFromContext(r.Context())
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), userID)
	})
}

// UpdateMe edits names, phone, gender and photo of the signed-in user. Email
// and role are not editable here.
func UpdateMe(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return render(svc, logg, func(r *http.Request) (any, error) {
		userID, err := middleware.UserUUIDFromContext(r.Context())
		if err != nil {
			return nil, err
		}
		var in usersvc.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateProfile(r.Context(), userID, in)
	})
}
