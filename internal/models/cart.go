// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
)

// Cart is one line of a user's shopping cart.
type Cart struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity > 0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Contact is a message left through the contact-us form.
type Contact struct {
	BaseModel
	Name    string `json:"name" gorm:"size:100;not null"`
	Email   string `json:"email" gorm:"size:255;not null"`
	Message string `json:"message" gorm:"type:text;not null"`
}
