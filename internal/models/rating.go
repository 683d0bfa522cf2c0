// internal/models/rating.go
package models

import (
	"github.com/google/uuid"
)

const (
	MinRating = 0
	MaxRating = 5
)

// Rating is a user's review of a product. At most one per (product, user).
type Rating struct {
	BaseModel
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user"`
	Rating      float64   `json:"rating" gorm:"not null;default:0;check:rating >= 0 AND rating <= 5"`
	Description string    `json:"description" gorm:"size:1000;not null"`

	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
