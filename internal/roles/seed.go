package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Permission names understood by the API.
const (
	PermCreateProduct     = "create_product"
	PermEditProduct       = "edit_product"
	PermDeleteProduct     = "delete_product"
	PermViewProduct       = "view_product"
	PermCreateOrder       = "create_order"
	PermEditOrder         = "edit_order"
	PermDeleteOrder       = "delete_order"
	PermViewOrder         = "view_order"
	PermManageUsers       = "manage_users"
	PermManageRoles       = "manage_roles"
	PermManagePermissions = "manage_permissions"
)

type seedRole struct {
	name        string
	display     string
	permissions []string
}

var defaultRoles = []seedRole{
	{enums.RoleAdmin, "Administrator", []string{PermManageUsers, PermManageRoles, PermManagePermissions}},
	{enums.RoleBuyer, "Buyer", []string{PermViewProduct, PermCreateOrder, PermViewOrder}},
	{enums.RoleSeller, "Seller", []string{PermCreateProduct, PermEditProduct, PermViewProduct}},
}

func defaultPermissions() []string {
	return []string{
		PermCreateProduct, PermEditProduct, PermDeleteProduct, PermViewProduct,
		PermCreateOrder, PermEditOrder, PermDeleteOrder, PermViewOrder,
		PermManageUsers, PermManageRoles, PermManagePermissions,
	}
}

// Seeder installs the built-in permissions, roles and admin account. Running
// it again leaves existing rows untouched.
type Seeder struct {
	roles    *Repository
	users    *users.Repository
	password config.PasswordConfig
	admin    config.AdminSeedConfig
	logg     *logger.Logger
}

func NewSeeder(rolesRepo *Repository, usersRepo *users.Repository, password config.PasswordConfig, admin config.AdminSeedConfig, logg *logger.Logger) (*Seeder, error) {
	if rolesRepo == nil || usersRepo == nil {
		return nil, fmt.Errorf("roles and users repositories required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Seeder{roles: rolesRepo, users: usersRepo, password: password, admin: admin, logg: logg}, nil
}

// Seed runs every step and reports all failures together.
func (s *Seeder) Seed(ctx context.Context) error {
	var errs error
	if _, err := s.roles.EnsurePermissions(ctx, defaultPermissions()); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	for _, r := range defaultRoles {
		errs = multierr.Append(errs, s.ensureRole(ctx, r))
	}
	if s.admin.Enabled() {
		errs = multierr.Append(errs, s.ensureAdmin(ctx))
	} else {
		s.logg.Info(ctx, "admin seed skipped: STOREFRONT_ADMIN_EMAIL or password not set")
	}
	return errs
}

func (s *Seeder) ensureRole(ctx context.Context, r seedRole) error {
	_, err := s.roles.FindRoleByName(ctx, r.name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup role %s: %w", r.name, err)
	}
	perms, err := s.roles.EnsurePermissions(ctx, r.permissions)
	if err != nil {
		return fmt.Errorf("permissions for role %s: %w", r.name, err)
	}
	role := &models.Role{Name: r.name, DisplayName: r.display, Permissions: perms}
	if err := s.roles.CreateRole(ctx, role); err != nil {
		return fmt.Errorf("create role %s: %w", r.name, err)
	}
	s.logg.Info(s.logg.WithField(ctx, "role", r.name), "role seeded")
	return nil
}

func (s *Seeder) ensureAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.admin.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}
	role, err := s.roles.FindRoleByName(ctx, enums.RoleAdmin)
	if err != nil {
		return fmt.Errorf("lookup admin role: %w", err)
	}
	hash, err := security.HashPassword(s.admin.Password, s.password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := s.users.Create(ctx, users.CreateUserDTO{
		FirstName:    s.admin.FirstName,
		LastName:     s.admin.LastName,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  s.admin.Phone,
		RoleID:       role.ID,
		Verified:     true,
	}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "email", email), "admin user seeded")
	return nil
}
