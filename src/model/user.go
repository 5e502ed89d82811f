package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account holder able to log in to the application.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"size:200;not null" json:"fullName"`
	Email        string    `gorm:"size:200;uniqueIndex;not null" json:"email"`
	UserName     string    `gorm:"size:100;uniqueIndex;not null;column:user_name" json:"username"`
	Password     string    `gorm:"size:200;not null" json:"-"`
	Phone        string    `gorm:"size:50" json:"phone,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	ReferralCode string    `gorm:"size:32;uniqueIndex;not null" json:"referralCode"`
	ReferredBy   string    `gorm:"size:32;index" json:"referredBy,omitempty"` // code the user signed up with
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// NewReferralCode returns a random upper case code for a new user.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID           uint      `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	UserName     string    `json:"username"`
	Phone        string    `json:"phone,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	ReferralCode string    `json:"referralCode"`
	ReferredBy   string    `json:"referredBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		UserName:     u.UserName,
		Phone:        u.Phone,
		IsAdmin:      u.IsAdmin,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
		CreatedAt:    u.CreatedAt,
	}
}

type RegisterPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Ref      string `json:"ref"` // referral code of the inviting user
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserPayload struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
