package domain

import "time"

// Section is a content category that resources belong to.
// Webhooks are registered against sections.
type Section struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Handle    string    `json:"handle"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
