package models

import "time"

// Post is a blog post. Each post is its own record; deletion is permanent.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Excerpt       string    `gorm:"type:text" json:"excerpt"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CoverImage    string    `json:"coverImage"`
	GalleryImages []string  `gorm:"serializer:json;type:text" json:"galleryImages"`
	AuthorID      string    `gorm:"not null;index" json:"authorId"`
	CreatedAt     time.Time `gorm:"autoCreateTime;<-:create" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
