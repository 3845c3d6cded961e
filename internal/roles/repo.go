package roles

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists roles, permissions and their join table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateRole(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Omit("Permissions.*").Create(role).Error
}

func (r *Repository) FindRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&rows).Error
	return rows, err
}

// UpdateRole saves scalar fields and, when perms is non-nil, replaces the
// role's permission set.
func (r *Repository) UpdateRole(ctx context.Context, role *models.Role, perms []models.Permission) error {
	if err := r.db.WithContext(ctx).Model(role).
		Updates(map[string]any{"name": role.Name, "display_name": role.DisplayName}).Error; err != nil {
		return err
	}
	if perms == nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms)
}

func (r *Repository) DeleteRole(ctx context.Context, id uuid.UUID) (bool, error) {
	role := models.Role{ID: id}
	if err := r.db.WithContext(ctx).Model(&role).Association("Permissions").Clear(); err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CreatePermission(ctx context.Context, perm *models.Permission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

func (r *Repository) FindPermissionByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	var perm models.Permission
	if err := r.db.WithContext(ctx).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var rows []models.Permission
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdatePermission(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Permission{}).Where("id = ?", id).Update("name", name)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) DeletePermission(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.Permission{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// EnsurePermissions returns the named permissions, inserting any that do not
// exist yet.
func (r *Repository) EnsurePermissions(ctx context.Context, names []string) ([]models.Permission, error) {
	if len(names) == 0 {
		return []models.Permission{}, nil
	}
	rows := make([]models.Permission, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.Permission{Name: name})
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	var perms []models.Permission
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}
