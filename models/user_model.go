package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'member'" json:"role"`

	// VPA is the user's virtual payment address on this platform,
	// assigned at registration (e.g. "jane4821@paysplit").
	VPA           string  `gorm:"size:100;not null;unique" json:"vpa"`
	WalletBalance float64 `gorm:"type:numeric(12,2);default:0.00" json:"wallet_balance"`

	AvatarURL *string `gorm:"size:255" json:"avatar_url"`
	Phone     *string `gorm:"size:20" json:"phone"`

	Groups []*Group `gorm:"many2many:group_members;" json:"-"`

	ResetPasswordToken          *string    `gorm:"size:255;unique" json:"-"`
	ResetPasswordTokenExpiresAt *time.Time `json:"-"`
	IsActive                    bool       `gorm:"default:true" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
