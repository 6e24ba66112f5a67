package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User ist ein über OAuth angemeldeter Benutzer. APIToken wird für Bearer-Authentifizierung genutzt.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string  `json:"username" gorm:"index"`
	Email    string  `json:"email" gorm:"uniqueIndex;not null"`
	APIToken *string `json:"-" gorm:"column:api_token;uniqueIndex"`
	Role     string  `json:"role" gorm:"not null;default:'user'"`
	IsActive bool    `json:"is_active" gorm:"not null;default:true"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (User) TableName() string {
	return "users"
}

// IsAdmin meldet, ob der Benutzer Admin-Rechte hat.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
