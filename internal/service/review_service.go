package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
	"github.com/jwall29/swiply/internal/lifecycle"
	"github.com/jwall29/swiply/internal/repository"
)

var (
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrNotAwaitingReview = errors.New("request is not awaiting review")
	ErrAlreadyReviewed   = errors.New("you already reviewed this request")
	ErrNoCounterparty    = errors.New("request has no one to review")
)

// ReviewService records reviews and keeps the reviewee's running
// rating aggregate. Its submit transaction is the only path that moves
// a request into complete.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	requestRepo repository.RequestRepository
	notifier    Notifier
}

func NewReviewService(reviewRepo repository.ReviewRepository, requestRepo repository.RequestRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		requestRepo: requestRepo,
	}
}

func (s *ReviewService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit validates and commits one review: the review insert, the
// reviewee's rating-sum/total increment, the reviewer-side completed
// flag, and the transition into complete land in a single transaction.
// The average is recomputed afterwards in a separate write. A crash in
// between leaves it stale until the next review lands.
func (s *ReviewService) Submit(ctx context.Context, requestID, reviewerID uuid.UUID, rating int) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrRatingOutOfRange
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if !req.Participant(reviewerID) {
		return nil, ErrNotParticipant
	}
	if !lifecycle.Allowed(req.Status, lifecycle.EventSubmitReview) {
		return nil, ErrNotAwaitingReview
	}

	isRequester := req.RequesterID == reviewerID
	if (isRequester && req.RequesterReviewCompleted) || (!isRequester && req.SwiperReviewCompleted) {
		return nil, ErrAlreadyReviewed
	}

	reviewee := req.OtherParticipant(reviewerID)
	if reviewee == nil {
		return nil, ErrNoCounterparty
	}

	rev := &domain.Review{
		ID:         uuid.New(),
		RequestID:  requestID,
		ReviewerID: reviewerID,
		RevieweeID: *reviewee,
		Rating:     rating,
		CreatedAt:  time.Now(),
	}
	if err := s.reviewRepo.Submit(ctx, rev, isRequester); err != nil {
		return nil, fmt.Errorf("submitting review: %w", err)
	}

	s.recomputeAverage(ctx, *reviewee)

	// Reminder bookkeeping is advisory; losing this delete never blocks
	// anything.
	if err := s.reviewRepo.DeleteReminder(ctx, reviewerID, requestID); err != nil {
		log.Printf("review: reminder delete for %s on %s failed: %v", reviewerID, requestID, err)
	}

	if s.notifier != nil {
		if updated, err := s.requestRepo.GetByID(ctx, requestID); err == nil && updated != nil {
			s.notifier.NotifyRequestUpdated(updated)
		}
	}
	return rev, nil
}

// RecomputeAverage re-derives average_rating from the committed
// counters. Safe to call any number of times.
func (s *ReviewService) RecomputeAverage(ctx context.Context, userID uuid.UUID) error {
	stats, err := s.reviewRepo.GetStats(ctx, userID)
	if err != nil {
		return err
	}
	if stats == nil || stats.TotalReviews == 0 {
		return nil
	}
	avg := float64(stats.RatingSum) / float64(stats.TotalReviews)
	return s.reviewRepo.UpdateAverage(ctx, userID, avg)
}

// Stats returns the user's rating aggregate, zero-valued when the user
// has no reviews yet.
func (s *ReviewService) Stats(ctx context.Context, userID uuid.UUID) (*domain.RatingStats, error) {
	stats, err := s.reviewRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &domain.RatingStats{UserID: userID}
	}
	return stats, nil
}

// Reminders surfaces requests still awaiting the user's review,
// typically checked on app foreground.
func (s *ReviewService) Reminders(ctx context.Context, userID uuid.UUID) ([]domain.ReviewReminder, error) {
	reminders, err := s.reviewRepo.ListReminders(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []domain.ReviewReminder{}
	}
	return reminders, nil
}

func (s *ReviewService) recomputeAverage(ctx context.Context, userID uuid.UUID) {
	if err := s.RecomputeAverage(ctx, userID); err != nil {
		log.Printf("review: average recompute for %s failed: %v", userID, err)
	}
}
