package models

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// AdminPostRequest is the body of POST /admin/posts.
type AdminPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostInput carries the editable fields of a blog post.
type PostInput struct {
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	CoverImage    string   `json:"coverImage"`
	GalleryImages []string `json:"galleryImages"`
}
