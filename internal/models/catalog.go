// internal/models/catalog.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`

	Collections []Collection `json:"collections,omitempty" gorm:"foreignKey:CategoryID"`
}

type Collection struct {
	BaseModel
	Name       string         `json:"name" gorm:"size:100;uniqueIndex;not null"`
	CategoryID *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	Images     pq.StringArray `json:"images" gorm:"type:text[]"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// Size is reference data; product sizes point at it.
type Size struct {
	BaseModel
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"`
}

type Color struct {
	BaseModel
	Name    string `json:"name" gorm:"size:50;uniqueIndex;not null"`
	HexCode string `json:"hex_code" gorm:"size:7;not null"`
}
