// internal/models/variant.go
package models

import (
	"github.com/google/uuid"
)

// ProductColor associates a product with a reference Color under a display name.
type ProductColor struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_colors_product_color"`
	ColorID   uuid.UUID `json:"color_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_colors_product_color"`
	Name      string    `json:"name" gorm:"size:100;not null"`

	Color *Color `json:"color,omitempty" gorm:"foreignKey:ColorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// ProductSize is the stock ledger of one (product, size) pair.
// RemainingQty always equals OriginalQty - PurchaseQty and never drops below zero.
type ProductSize struct {
	BaseModel
	ProductID     uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_sizes_product_size"`
	SizeID        uuid.UUID `json:"size_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_sizes_product_size"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	OriginalPrice float64   `json:"original_price" gorm:"type:decimal(10,2);not null;default:0"`
	OriginalQty   int       `json:"original_qty" gorm:"not null;default:0;check:original_qty >= 0"`
	PurchaseQty   int       `json:"purchase_qty" gorm:"not null;default:0;check:purchase_qty >= 0"`
	RemainingQty  int       `json:"remaining_qty" gorm:"not null;default:0;check:remaining_qty >= 0"`

	Size *Size `json:"size,omitempty" gorm:"foreignKey:SizeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Image struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	ImageURL  string    `json:"image_url" gorm:"size:1024;not null"`
}
