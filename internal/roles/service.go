package roles

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages roles and permissions for admins.
type Service interface {
	CreateRole(ctx context.Context, input RoleInput) (*RoleDTO, error)
	ListRoles(ctx context.Context) ([]RoleDTO, error)
	UpdateRole(ctx context.Context, roleID uuid.UUID, input RoleInput) (*RoleDTO, error)
	DeleteRole(ctx context.Context, roleID uuid.UUID) error
	CreatePermission(ctx context.Context, input PermissionInput) (*PermissionDTO, error)
	ListPermissions(ctx context.Context) ([]PermissionDTO, error)
	UpdatePermission(ctx context.Context, permissionID uuid.UUID, input PermissionInput) (*PermissionDTO, error)
	DeletePermission(ctx context.Context, permissionID uuid.UUID) error
}

// assignmentCounter reports how many users hold a role.
type assignmentCounter interface {
	CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}

type service struct {
	repo  *Repository
	users assignmentCounter
	tx    db.TxRunner
}

func NewService(repo *Repository, users assignmentCounter, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, users: users, tx: tx}, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalizeName(n)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func (s *service) CreateRole(ctx context.Context, input RoleInput) (*RoleDTO, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Role name is required")
	}
	role := &models.Role{Name: name, DisplayName: displayName(input.DisplayName, name)}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		perms, err := repo.EnsurePermissions(ctx, normalizeNames(input.Permissions))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure permissions")
		}
		role.Permissions = perms
		if err := repo.CreateRole(ctx, role); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "Role already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, role.ID)
}

func displayName(raw, name string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return name
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Role not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
	}
	dto := toRoleDTO(role)
	return &dto, nil
}

func (s *service) ListRoles(ctx context.Context) ([]RoleDTO, error) {
	rows, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toRoleDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateRole(ctx context.Context, roleID uuid.UUID, input RoleInput) (*RoleDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		role, err := repo.FindRoleByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Role not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
		}
		if name := normalizeName(input.Name); name != "" {
			role.Name = name
		}
		if v := strings.TrimSpace(input.DisplayName); v != "" {
			role.DisplayName = v
		}
		var perms []models.Permission
		if input.Permissions != nil {
			perms, err = repo.EnsurePermissions(ctx, normalizeNames(input.Permissions))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure permissions")
			}
		}
		if err := repo.UpdateRole(ctx, role, perms); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "Role already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, roleID)
}

func (s *service) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	assigned, err := s.users.CountByRole(ctx, roleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count role users")
	}
	if assigned > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "Role is assigned to %d users", assigned)
	}
	var deleted bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteRole(ctx, roleID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete role")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Role not found")
	}
	return nil
}

func (s *service) CreatePermission(ctx context.Context, input PermissionInput) (*PermissionDTO, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Permission name is required")
	}
	perm := &models.Permission{Name: name}
	if err := s.repo.CreatePermission(ctx, perm); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Permission already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create permission")
	}
	dto := toPermissionDTO(perm)
	return &dto, nil
}

func (s *service) ListPermissions(ctx context.Context) ([]PermissionDTO, error) {
	rows, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list permissions")
	}
	out := make([]PermissionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toPermissionDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdatePermission(ctx context.Context, permissionID uuid.UUID, input PermissionInput) (*PermissionDTO, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Permission name is required")
	}
	found, err := s.repo.UpdatePermission(ctx, permissionID, name)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Permission already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permission")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Permission not found")
	}
	perm, err := s.repo.FindPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load permission")
	}
	dto := toPermissionDTO(perm)
	return &dto, nil
}

func (s *service) DeletePermission(ctx context.Context, permissionID uuid.UUID) error {
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeletePermission(ctx, permissionID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete permission")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Permission not found")
	}
	return nil
}
