package poll

import (
	"context"
	"math"
	"time"
)

// Poll is a single-choice question owned by its creator. Polls stay
// open until the creator deletes them; there is no closed state.
type Poll struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Question  string    `json:"question"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Options   []*Option `json:"options"`
}

// Option is one answer, carrying the ids of everyone currently voting
// for it.
type Option struct {
	ID       string   `json:"id"`
	PollID   string   `json:"pollId"`
	Label    string   `json:"label"`
	Position int      `json:"position"`
	Voters   []string `json:"voters"`
}

// OptionTally is one option's share of the vote
type OptionTally struct {
	OptionID   string   `json:"optionId"`
	Label      string   `json:"label"`
	Voters     []string `json:"voters"`
	Votes      int      `json:"votes"`
	Percentage int      `json:"percentage"`
}

// Tally groups votes by option. With zero total votes every option
// reports 0%.
func (p *Poll) Tally() []*OptionTally {
	total := 0
	for _, opt := range p.Options {
		total += len(opt.Voters)
	}

	tallies := make([]*OptionTally, 0, len(p.Options))
	for _, opt := range p.Options {
		count := len(opt.Voters)
		pct := 0
		if total > 0 {
			pct = int(math.Round(100 * float64(count) / float64(total)))
		}
		tallies = append(tallies, &OptionTally{
			OptionID:   opt.ID,
			Label:      opt.Label,
			Voters:     opt.Voters,
			Votes:      count,
			Percentage: pct,
		})
	}
	return tallies
}

// TotalVotes counts votes across all options
func (p *Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += len(opt.Voters)
	}
	return total
}

// Repository handles poll persistence
type Repository interface {
	CreatePoll(ctx context.Context, p *Poll) error
	CreateOptions(ctx context.Context, opts []*Option) error
	// GetPoll returns the poll with its options and voter ids, or nil.
	GetPoll(ctx context.Context, pollID string) (*Poll, error)
	ListByGroup(ctx context.Context, groupID string) ([]*Poll, error)
	DeletePoll(ctx context.Context, pollID string) error
	// DeleteVotes removes the voter's vote rows for the poll; a no-op
	// when none exist.
	DeleteVotes(ctx context.Context, pollID, userID string) error
	InsertVote(ctx context.Context, pollID, optionID, userID string) error
}

// MembershipChecker gates all poll operations on group membership.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}
