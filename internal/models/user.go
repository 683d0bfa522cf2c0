// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string `json:"username" gorm:"size:50;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone        string `json:"phone" gorm:"size:20"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	IsAdmin      bool   `json:"is_admin" gorm:"default:false"`

	// Relationships
	Ratings []Rating `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Cart    []Cart   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
