package note

import "time"

// Note is the application-level record exposed by the API. The persisted
// MongoDB document is looser than this shape; the mapper package owns the
// translation in both directions.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput carries the fields a create request may set.
type CreateInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateInput carries a partial update: nil fields are left untouched.
type UpdateInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// IsEmpty reports whether the update names no field at all. Empty updates
// are rejected by the service rather than treated as a no-op success.
func (u UpdateInput) IsEmpty() bool {
	return u.Title == nil && u.Content == nil
}
