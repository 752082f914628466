package domain

import "time"

// User is the human owner of meetings and agents. Identity is issued by the
// external auth provider; this row mirrors the token claims we have seen.
type User struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Image     *string   `json:"image" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for User.
func (User) TableName() string {
	return "users"
}
