// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Name           string         `json:"name" gorm:"size:255;not null"`
	BasePrice      float64        `json:"base_price" gorm:"type:decimal(10,2);not null;check:base_price >= 0"`
	Description    string         `json:"description" gorm:"type:text"`
	Details        pq.StringArray `json:"details" gorm:"type:text[]"`
	SizeFit        pq.StringArray `json:"size_fit" gorm:"type:text[]"`
	MaterialCare   pq.StringArray `json:"material_care" gorm:"type:text[]"`
	ShippingReturn pq.StringArray `json:"shipping_return" gorm:"type:text[]"`
	CategoryID     *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	CollectionID   *uuid.UUID     `json:"collection_id" gorm:"type:uuid;index"`
	AverageRating  int            `json:"average_rating" gorm:"default:0"`
	TotalReviews   int64          `json:"total_reviews" gorm:"default:0"`

	// Relationships
	Category      *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Collection    *Collection    `json:"collection,omitempty" gorm:"foreignKey:CollectionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Images        []Image        `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	ProductColors []ProductColor `json:"product_colors" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	ProductSizes  []ProductSize  `json:"product_sizes" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Ratings       []Rating       `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ImageURLs flattens the image set into the URL list clients render.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, image := range p.Images {
		urls = append(urls, image.ImageURL)
	}
	return urls
}
