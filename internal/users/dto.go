package users

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Email       string           `json:"email"`
	Gender      enums.Gender     `json:"gender"`
	PhoneNumber string           `json:"phoneNumber"`
	PhotoURL    *string          `json:"photoUrl,omitempty"`
	Verified    bool             `json:"verified"`
	Status      enums.UserStatus `json:"status"`
	Role        string           `json:"role"`
	Permissions []string         `json:"permissions,omitempty"`
	LastLoginAt *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	PhoneNumber  string
	Gender       enums.Gender
	RoleID       uuid.UUID
	Verified     bool
}

// UpdateProfileInput is the self-service profile patch. Nil fields are left alone.
type UpdateProfileInput struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,min=7,max=20"`
	Gender      *string `json:"gender"`
	PhotoURL    *string `json:"photoUrl" validate:"omitempty,url"`
}

// ChangeRoleInput assigns a role by name.
type ChangeRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// UpdateStatusInput activates or blocks an account.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// UserList is a page of users.
type UserList struct {
	Users       []UserDTO `json:"users"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	TotalUsers  int64     `json:"totalUsers"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Gender:      u.Gender,
		PhoneNumber: u.PhoneNumber,
		PhotoURL:    u.PhotoURL,
		Verified:    u.Verified,
		Status:      u.Status,
		Role:        u.Role.Name,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if len(u.Role.Permissions) > 0 {
		dto.Permissions = u.Role.PermissionNames()
	}
	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	gender := c.Gender
	if gender == "" {
		gender = enums.GenderNotSpecified
	}
	return &models.User{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		PhoneNumber:  c.PhoneNumber,
		Gender:       gender,
		Status:       enums.UserStatusActive,
		RoleID:       c.RoleID,
		Verified:     c.Verified,
	}
}
