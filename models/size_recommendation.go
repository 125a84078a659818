package models

import "time"

// SizeRecommendation is an append-only audit row written after every
// successful size query. It is never read back by the engine itself.
type SizeRecommendation struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID  string    `gorm:"index;not null" json:"external_user_id"`
	Brand           string    `gorm:"not null" json:"brand"`
	ClothingType    string    `gorm:"not null" json:"clothing_type"`
	RecommendedSize string    `gorm:"not null" json:"recommended_size"`
	Confidence      float64   `json:"confidence"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}
