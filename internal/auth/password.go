package auth

import (
	"context"
	"errors"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const resetPath = "/reset-password/"

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "No account found with that email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := pkgAuth.MintActionToken(s.jwtCfg, s.now(), user.ID, pkgAuth.PurposeResetPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint reset token")
	}
	s.notify(ctx, mailer.TemplateResetPassword, user, s.link(resetPath, token))
	return nil
}

// parseAction maps token failures onto a single client-facing error.
func (s *service) parseAction(token string, purpose pkgAuth.ActionPurpose) (*pkgAuth.ActionTokenClaims, error) {
	claims, err := pkgAuth.ParseActionToken(s.jwtCfg, token, purpose)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid or expired token")
	}
	return claims, nil
}

func (s *service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.parseAction(token, pkgAuth.PurposeResetPassword)
	if err != nil {
		return err
	}
	if err := security.ValidatePasswordPolicy(password); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	return s.setPassword(ctx, claims.UserID, password)
}

func (s *service) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	found, err := s.users.UpdateFields(ctx, userID, map[string]any{"password_hash": hash})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	return nil
}

func (s *service) VerifyAccount(ctx context.Context, token string) error {
	claims, err := s.parseAction(token, pkgAuth.PurposeVerifyAccount)
	if err != nil {
		return err
	}
	found, err := s.users.UpdateFields(ctx, claims.UserID, map[string]any{"verified": true})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify account")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	return nil
}

func (s *service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return pkgerrors.New(pkgerrors.CodeConflict, "Account is already verified")
	}
	return s.sendVerification(ctx, user)
}

func (s *service) sendVerification(ctx context.Context, user *models.User) error {
	token, err := pkgAuth.MintActionToken(s.jwtCfg, s.now(), user.ID, pkgAuth.PurposeVerifyAccount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint verification token")
	}
	s.notify(ctx, mailer.TemplateAccountVerify, user, s.link(verifyPath, token))
	return nil
}

func (s *service) UpdatePassword(ctx context.Context, userID uuid.UUID, req UpdatePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	ok, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Current password is incorrect")
	}
	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}
