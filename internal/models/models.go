package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Image is the reference returned by the media host for an uploaded file.
type Image struct {
	PublicID string `gorm:"not null" json:"public_id"`
	URL      string `gorm:"not null" json:"url"`
}

type Product struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name      string    `gorm:"size:100;not null"              json:"name"`
	Image     Image     `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Price     float64   `gorm:"not null;default:0"             json:"price"`
	Size      float64   `gorm:"not null"                       json:"size"`
	Category  string    `gorm:"index;not null"                 json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}
