package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

const verifyPath = "/api/v1/auth/verify/"

// Register creates a buyer (or seller) account and emails a verification link.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	phone := strings.TrimSpace(req.PhoneNumber)
	if firstName == "" || lastName == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "firstName, lastName and phoneNumber are required")
	}
	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	gender, err := enums.ParseGender(strings.ToLower(strings.TrimSpace(req.Gender)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Gender must be male, female or not specified")
	}

	roleName := strings.ToLower(strings.TrimSpace(req.Role))
	if roleName == "" {
		roleName = enums.RoleBuyer
	}
	if roleName == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be self-registered")
	}
	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Role %q does not exist", roleName)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	taken, err := s.users.PhoneTaken(ctx, phone, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		PhoneNumber:  phone,
		Gender:       gender,
		RoleID:       role.ID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}
