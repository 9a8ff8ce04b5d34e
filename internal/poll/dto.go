package poll

// CreatePollRequest represents the request to create a poll
type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// VoteRequest represents the request to cast or clear a vote. A null
// optionId clears the caller's vote.
type VoteRequest struct {
	OptionID *string `json:"optionId"`
}

// ListResponse wraps a group's polls
type ListResponse struct {
	Polls []*Poll `json:"polls"`
}

// PollResponse wraps a single poll
type PollResponse struct {
	Poll *Poll `json:"poll"`
}
