package roles

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// RoleInput creates or replaces a role. Permission names are created on demand.
type RoleInput struct {
	Name        string   `json:"name" validate:"required,min=2,max=50"`
	DisplayName string   `json:"displayName"`
	Permissions []string `json:"permissions"`
}

// PermissionInput creates or renames a permission.
type PermissionInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type PermissionDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toRoleDTO(r *models.Role) RoleDTO {
	return RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Permissions: r.PermissionNames(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toPermissionDTO(p *models.Permission) PermissionDTO {
	return PermissionDTO{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}
