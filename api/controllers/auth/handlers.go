package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const accessTokenHeader = "X-Access-Token"

type message struct {
	Message string `json:"message"`
}

// action is the body of an auth endpoint. It may set response headers on w
// but leaves the status line and body to handle.
type action func(w http.ResponseWriter, r *http.Request) (status int, body any, err error)

func handle(svc auth.Service, logg *logger.Logger, fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		status, body, err := fn(w, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, body)
	}
}

func decode[T any](r *http.Request) (T, error) {
	var body T
	err := validators.DecodeJSONBody(r, &body)
	return body, err
}

func pathToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	return token, nil
}

func ok(text string) (int, any, error) {
	return http.StatusOK, message{Message: text}, nil
}

// Register creates a buyer or seller account and sends the verification mail.
func Register(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		req, err := decode[auth.RegisterRequest](r)
		if err != nil {
			return 0, nil, err
		}
		user, err := svc.Register(r.Context(), req)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, map[string]any{
			"message": "User registered successfully. Please check your email to verify your account.",
			"user":    user,
		}, nil
	})
}

// Login returns the token pair; the access token is mirrored in a header.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) (int, any, error) {
		req, err := decode[auth.LoginRequest](r)
		if err != nil {
			return 0, nil, err
		}
		result, err := svc.Login(r.Context(), req)
		if err != nil {
			return 0, nil, err
		}
		w.Header().Set(accessTokenHeader, result.AccessToken)
		return http.StatusOK, result, nil
	})
}

func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		token, err := middleware.BearerToken(r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			return 0, nil, err
		}
		return ok("Logged out successfully")
	})
}

// Refresh needs the (possibly expired) access token alongside the refresh
// token so the session it belongs to can be found.
func Refresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(w http.ResponseWriter, r *http.Request) (int, any, error) {
		req, err := decode[auth.RefreshRequest](r)
		if err != nil {
			return 0, nil, err
		}
		token, err := middleware.BearerToken(r)
		if err != nil {
			return 0, nil, err
		}
		pair, err := svc.Refresh(r.Context(), token, req.RefreshToken)
		if err != nil {
			return 0, nil, err
		}
		w.Header().Set(accessTokenHeader, pair.AccessToken)
		return http.StatusOK, pair, nil
	})
}

func ForgotPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		req, err := decode[auth.EmailRequest](r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			return 0, nil, err
		}
		return ok("Password reset link sent to your email")
	})
}

func ResetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		token, err := pathToken(r)
		if err != nil {
			return 0, nil, err
		}
		req, err := decode[auth.ResetPasswordRequest](r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.ResetPassword(r.Context(), token, req.Password); err != nil {
			return 0, nil, err
		}
		return ok("Password has been reset successfully")
	})
}

func VerifyAccount(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		token, err := pathToken(r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.VerifyAccount(r.Context(), token); err != nil {
			return 0, nil, err
		}
		return ok("Account verified successfully")
	})
}

func ResendVerification(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		req, err := decode[auth.EmailRequest](r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.ResendVerification(r.Context(), req.Email); err != nil {
			return 0, nil, err
		}
		return ok("Verification email sent")
	})
}

// UpdatePassword changes the signed-in user's password.
func UpdatePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		userID, err := middleware.UserUUIDFromContext(r.Context())
		if err != nil {
			return 0, nil, err
		}
		req, err := decode[auth.UpdatePasswordRequest](r)
		if err != nil {
			return 0, nil, err
		}
		if err := svc.UpdatePassword(r.Context(), userID, req); err != nil {
			return 0, nil, err
		}
		return ok("Password updated successfully")
	})
}
