package enums

import "fmt"

// Gender is the self-reported gender on a user profile.
type Gender string

const (
	GenderMale         Gender = "male"
	GenderFemale       Gender = "female"
	GenderNotSpecified Gender = "not specified"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNotSpecified:
		return true
	}
	return false
}

// ParseGender maps blank input to GenderNotSpecified.
func ParseGender(value string) (Gender, error) {
	if value == "" {
		return GenderNotSpecified, nil
	}
	g := Gender(value)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid gender %q", value)
	}
	return g, nil
}

// UserStatus gates whether an account may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

func ParseUserStatus(value string) (UserStatus, error) {
	s := UserStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid user status %q", value)
	}
	return s, nil
}

// Built-in role names. Roles live in the database; these are the ones the
// service relies on for authorization and seeding.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)
