package models

import (
	"github.com/google/uuid"
)

// ReputationEntry aggregates the ratings a writer has received.
type ReputationEntry struct {
	WriterID    uuid.UUID `json:"writer_id"`
	RatingSum   int64     `json:"rating_sum"`
	RatingCount int64     `json:"rating_count"`
}

// Average returns the writer's mean rating scaled by 100 for integer
// precision (e.g. 450 for 4.5 stars), or 0 when the writer is unrated.
func (r ReputationEntry) Average() int64 {
	if r.RatingCount == 0 {
		return 0
	}
	return r.RatingSum * 100 / r.RatingCount
}
