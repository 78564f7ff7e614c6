package models

import "time"

const (
	DefaultAuthor   = "Admin"
	DefaultCategory = "General"
)

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Category  string    `json:"category"`
	Body      string    `json:"body"`
	MainImage string    `json:"mainImage"`
	Thumbnail string    `json:"thumbnail"`
	Comments  []Comment `json:"comments"`
}

type Comment struct {
	Comment   string    `json:"comment"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"createdBy"`
}

// PostInput holds the fields accepted when creating a post. Anything else in
// the request body is dropped during decoding.
type PostInput struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	Body      string `json:"body"`
	MainImage string `json:"mainImage"`
	Thumbnail string `json:"thumbnail"`
}

// PostPatch holds the fields accepted when updating a post. Nil fields are
// left untouched.
type PostPatch struct {
	Title     *string `json:"title"`
	Category  *string `json:"category"`
	Body      *string `json:"body"`
	MainImage *string `json:"mainImage"`
	Thumbnail *string `json:"thumbnail"`
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.Body == nil && p.MainImage == nil && p.Thumbnail == nil
}

// Apply merges the set fields of p into post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Body != nil {
		post.Body = *p.Body
	}
	if p.MainImage != nil {
		post.MainImage = *p.MainImage
	}
	if p.Thumbnail != nil {
		post.Thumbnail = *p.Thumbnail
	}
}

type CommentInput struct {
	Comment string `json:"comment"`
}
