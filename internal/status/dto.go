package status

// PutStatusRequest represents the request to set the caller's status
type PutStatusRequest struct {
	Status    string  `json:"status"`
	Emoji     *string `json:"emoji,omitempty"`
	Image     *string `json:"image,omitempty"`
	ExpiresIn string  `json:"expiresIn,omitempty"`
}

// ListResponse wraps a group's live statuses
type ListResponse struct {
	Statuses []*Entry `json:"statuses"`
}

// PutResponse wraps the stored status after an upsert
type PutResponse struct {
	Status *Entry `json:"status"`
}
