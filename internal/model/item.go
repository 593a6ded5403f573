package model

// Item is the domain model for a todo entry as served by the collection API.
// IDs are assigned by the server and never change.
type Item struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	DueDate     *Date  `json:"due_date"`
	Starred     bool   `json:"starred"`
	IsCompleted bool   `json:"is_completed"`
}

// CreateRequest is the body of POST /api/todos/create.
type CreateRequest struct {
	Description string `json:"description"`
	DueDate     *Date  `json:"due_date,omitempty"`
}

// UpdateRequest is the body of PATCH /api/todos/{id}. Nil fields are left alone.
type UpdateRequest struct {
	IsCompleted *bool `json:"is_completed,omitempty"`
	Starred     *bool `json:"starred,omitempty"`
}

// ListFilter narrows GET /api/todos. Nil means "don't care".
type ListFilter struct {
	Due      *bool
	Complete *bool
}

// Bool returns a pointer to b, handy for filters and patches.
func Bool(b bool) *bool { return &b }
