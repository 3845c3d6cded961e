package roles

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	rolesvc "github.com/angelmondragon/storefront-backend/internal/roles"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Roles and permissions are managed through the same four verbs, so the
// handlers below are thin bindings over these generic shapes.

type idParam struct {
	key   string
	label string
}

var (
	roleID       = idParam{key: "roleId", label: "role id"}
	permissionID = idParam{key: "permissionId", label: "permission id"}
)

func guard(svc rolesvc.Service, logg *logger.Logger, next func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable"))
			return
		}
		if err := next(w, r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

func create[In, Out any](svc rolesvc.Service, logg *logger.Logger, call func(context.Context, In) (Out, error)) http.HandlerFunc {
	return guard(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		var in In
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return err
		}
		out, err := call(r.Context(), in)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
		return nil
	})
}

func list[Out any](svc rolesvc.Service, logg *logger.Logger, call func(context.Context) (Out, error)) http.HandlerFunc {
	return guard(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		out, err := call(r.Context())
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, out)
		return nil
	})
}

func update[In, Out any](svc rolesvc.Service, logg *logger.Logger, p idParam, call func(context.Context, uuid.UUID, In) (Out, error)) http.HandlerFunc {
	return guard(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := validators.ParseUUIDParam(r, p.key, p.label)
		if err != nil {
			return err
		}
		var in In
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return err
		}
		out, err := call(r.Context(), id, in)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, out)
		return nil
	})
}

func remove(svc rolesvc.Service, logg *logger.Logger, p idParam, done string, call func(context.Context, uuid.UUID) error) http.HandlerFunc {
	return guard(svc, logg, func(w http.ResponseWriter, r *http.Request) error {
		id, err := validators.ParseUUIDParam(r, p.key, p.label)
		if err != nil {
			return err
		}
		if err := call(r.Context(), id); err != nil {
			return err
		}
		responses.WriteSuccess(w, map[string]string{"message": done})
		return nil
	})
}

// CreateRole creates a role, creating any referenced permission on demand.
func CreateRole(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return create(svc, logg, func(ctx context.Context, in rolesvc.RoleInput) (*rolesvc.RoleDTO, error) {
		return svc.CreateRole(ctx, in)
	})
}

func ListRoles(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, func(ctx context.Context) ([]rolesvc.RoleDTO, error) {
		return svc.ListRoles(ctx)
	})
}

func UpdateRole(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return update(svc, logg, roleID, func(ctx context.Context, id uuid.UUID, in rolesvc.RoleInput) (*rolesvc.RoleDTO, error) {
		return svc.UpdateRole(ctx, id, in)
	})
}

// DeleteRole refuses roles that are still assigned to users.
func DeleteRole(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return remove(svc, logg, roleID, "Role deleted successfully", func(ctx context.Context, id uuid.UUID) error {
		return svc.DeleteRole(ctx, id)
	})
}

func CreatePermission(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return create(svc, logg, func(ctx context.Context, in rolesvc.PermissionInput) (*rolesvc.PermissionDTO, error) {
		return svc.CreatePermission(ctx, in)
	})
}

func ListPermissions(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, func(ctx context.Context) ([]rolesvc.PermissionDTO, error) {
		return svc.ListPermissions(ctx)
	})
}

func UpdatePermission(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return update(svc, logg, permissionID, func(ctx context.Context, id uuid.UUID, in rolesvc.PermissionInput) (*rolesvc.PermissionDTO, error) {
		return svc.UpdatePermission(ctx, id, in)
	})
}

func DeletePermission(svc rolesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return remove(svc, logg, permissionID, "Permission deleted successfully", func(ctx context.Context, id uuid.UUID) error {
		return svc.DeletePermission(ctx, id)
	})
}
