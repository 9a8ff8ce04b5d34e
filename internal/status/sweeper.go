package status

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically purges expired status rows. It bounds table
// growth only; correctness comes from the read-time expiry filter.
type Sweeper struct {
	repo     Repository
	interval time.Duration
}

func NewSweeper(repo Repository, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	log.Println("status sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("status sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Printf("status sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("status sweep removed %d expired entries", n)
			}
		}
	}
}
