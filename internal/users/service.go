package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const userNotFoundMessage = "User not found"

// Service covers admin user management and the self-service profile.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*UserList, error)
	ListByRole(ctx context.Context, roleName string, params pagination.Params) (*UserList, error)
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Delete(ctx context.Context, actorID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, userID uuid.UUID, input ChangeRoleInput) (*UserDTO, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, input UpdateStatusInput) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
}

// RoleLookup resolves role names; satisfied by the roles repository.
type RoleLookup interface {
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
}

// Notifier sends templated account emails.
type Notifier interface {
	Send(ctx context.Context, tpl mailer.Template, to string, data mailer.Data) error
}

// ServiceParams wires the users service.
type ServiceParams struct {
	Repo   *Repository
	Roles  RoleLookup
	Mailer Notifier
	Logger *logger.Logger
}

type service struct {
	repo   *Repository
	roles  RoleLookup
	mailer Notifier
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Roles == nil {
		return nil, fmt.Errorf("role lookup required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, roles: params.Roles, mailer: params.Mailer, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*UserList, error) {
	return s.list(ctx, nil, params)
}

func (s *service) ListByRole(ctx context.Context, roleName string, params pagination.Params) (*UserList, error) {
	role, err := s.resolveRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, &role.ID, params)
}

func (s *service) list(ctx context.Context, roleID *uuid.UUID, params pagination.Params) (*UserList, error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, roleID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := &UserList{
		Users:       make([]UserDTO, 0, len(rows)),
		TotalPages:  pagination.TotalPages(total, params.Limit),
		CurrentPage: params.Page,
		TotalUsers:  total,
	}
	for i := range rows {
		out.Users = append(out.Users, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "You cannot delete your own account")
	}
	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	return nil
}

func (s *service) resolveRole(ctx context.Context, name string) (*models.Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Role is required")
	}
	role, err := s.roles.FindRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "Role %q not found", name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
	}
	return role, nil
}

func (s *service) ChangeRole(ctx context.Context, userID uuid.UUID, input ChangeRoleInput) (*UserDTO, error) {
	role, err := s.resolveRole(ctx, input.Role)
	if err != nil {
		return nil, err
	}
	if err := s.patch(ctx, userID, map[string]any{"role_id": role.ID}); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UpdateStatus blocks or unblocks an account and tells the user by email.
// A mail failure is logged; the status change stands.
func (s *service) UpdateStatus(ctx context.Context, userID uuid.UUID, input UpdateStatusInput) (*UserDTO, error) {
	status, err := enums.ParseUserStatus(strings.ToLower(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Status must be either active or inactive")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return FromModel(user), nil
	}
	if err := s.patch(ctx, userID, map[string]any{"status": status}); err != nil {
		return nil, err
	}

	tpl := mailer.TemplateAccountUnblocked
	if status == enums.UserStatusInactive {
		tpl = mailer.TemplateAccountBlocked
	}
	if err := s.mailer.Send(ctx, tpl, user.Email, mailer.Data{FirstName: user.FirstName}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", userID.String()), "account status email failed: "+err.Error())
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "First name cannot be empty")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Last name cannot be empty")
		}
		updates["last_name"] = name
	}
	if input.Gender != nil {
		gender, err := enums.ParseGender(strings.ToLower(strings.TrimSpace(*input.Gender)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Gender must be male, female or not specified")
		}
		updates["gender"] = gender
	}
	if input.PhotoURL != nil {
		updates["photo_url"] = strings.TrimSpace(*input.PhotoURL)
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		taken, err := s.repo.PhoneTaken(ctx, phone, &userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Phone number already in use")
		}
		updates["phone_number"] = phone
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.patch(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) patch(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	found, err := s.repo.UpdateFields(ctx, userID, updates)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "Phone number already in use")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	return nil
}
