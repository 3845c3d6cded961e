package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder: buyer, seller or admin depending on its role.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	Email        string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	Gender       enums.Gender     `gorm:"column:gender;not null;default:'not specified'"`
	PhoneNumber  string           `gorm:"column:phone_number;not null;uniqueIndex"`
	PhotoURL     *string          `gorm:"column:photo_url"`
	Verified     bool             `gorm:"column:verified;not null;default:false"`
	Status       enums.UserStatus `gorm:"column:status;not null;default:'active'"`
	RoleID       uuid.UUID        `gorm:"column:role_id;type:uuid;not null"`
	Role         Role             `gorm:"foreignKey:RoleID"`
	Enable2FA    bool             `gorm:"column:enable_2fa;not null;default:false"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
