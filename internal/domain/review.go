package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is one participant's rating of the other after a completed swipe.
type Review struct {
	ID         uuid.UUID `json:"id"`
	RequestID  uuid.UUID `json:"request_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"` // 1..5
	CreatedAt  time.Time `json:"created_at"`
}

// RatingStats is a user's running review aggregate. RatingSum and
// TotalReviews are incremented atomically with each review insert;
// AverageRating is recomputed in a separate follow-up write and may lag
// briefly behind the counters.
type RatingStats struct {
	UserID        uuid.UUID `json:"user_id"`
	RatingSum     int       `json:"rating_sum"`
	TotalReviews  int       `json:"total_reviews"`
	AverageRating float64   `json:"average_rating"`
}

// ReviewReminder marks a request still awaiting the user's review.
// Advisory state only: losing a row never blocks or duplicates a review.
type ReviewReminder struct {
	UserID    uuid.UUID `json:"user_id"`
	RequestID uuid.UUID `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}
