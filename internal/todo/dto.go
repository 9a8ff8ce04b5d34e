package todo

// CreateListRequest represents the request to create a to-do list
type CreateListRequest struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// AddItemRequest represents the request to append one item
type AddItemRequest struct {
	Label string `json:"label"`
}

// UpdateItemRequest carries an item edit; at least one field must be set
type UpdateItemRequest struct {
	Completed *bool   `json:"completed,omitempty"`
	Label     *string `json:"label,omitempty"`
}

// ReorderRequest carries the full desired item order
type ReorderRequest struct {
	ItemIDs []string `json:"itemIds"`
}

// ListsResponse wraps a group's to-do lists
type ListsResponse struct {
	Lists []*List `json:"lists"`
}

// ListResponse wraps a single to-do list
type ListResponse struct {
	List *List `json:"list"`
}
