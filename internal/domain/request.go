package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a SwipeRequest.
type RequestStatus string

const (
	StatusOpen           RequestStatus = "open"
	StatusScheduled      RequestStatus = "scheduled"
	StatusInProgress     RequestStatus = "in_progress"
	StatusAwaitingReview RequestStatus = "awaiting_review"
	StatusComplete       RequestStatus = "complete"
	StatusCanceled       RequestStatus = "canceled"
)

// Terminal reports whether no further transitions are possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusComplete || s == StatusCanceled
}

// RequiresApprovalForChanges reports whether location/time edits must go
// through a ChangeProposal instead of a direct write.
func (s RequestStatus) RequiresApprovalForChanges() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// Location is one of the fixed campus dining locations.
type Location string

const (
	LocationCommons      Location = "commons"
	LocationWestUnion    Location = "west_union"
	LocationMarketplace  Location = "marketplace"
	LocationDivinityCafe Location = "divinity_cafe"
	LocationPitchforks   Location = "pitchforks"
)

var locations = map[Location]struct{}{
	LocationCommons:      {},
	LocationWestUnion:    {},
	LocationMarketplace:  {},
	LocationDivinityCafe: {},
	LocationPitchforks:   {},
}

// ValidLocation reports whether l is a known campus location.
func ValidLocation(l Location) bool {
	_, ok := locations[l]
	return ok
}

// SwipeRequest is one swipe favor: a requester asking a swiper to get
// them into a dining location at a given time.
type SwipeRequest struct {
	ID          uuid.UUID     `json:"id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	SwiperID    *uuid.UUID    `json:"swiper_id,omitempty"` // nil until a swiper accepts
	Location    Location      `json:"location"`
	MeetingTime time.Time     `json:"meeting_time"`
	Status      RequestStatus `json:"status"`

	// Handles of the external scheduler tasks tied to this request.
	StartTaskName    *string `json:"-"`
	ReminderTaskName *string `json:"-"`

	RequesterReviewCompleted bool `json:"requester_review_completed"`
	SwiperReviewCompleted    bool `json:"swiper_review_completed"`

	CreatedAt time.Time `json:"created_at"`
}

// Participant reports whether userID is the requester or the assigned swiper.
func (r *SwipeRequest) Participant(userID uuid.UUID) bool {
	if r.RequesterID == userID {
		return true
	}
	return r.SwiperID != nil && *r.SwiperID == userID
}

// OtherParticipant returns the counterpart of userID, or nil if the
// request has no swiper yet or userID is not a participant.
func (r *SwipeRequest) OtherParticipant(userID uuid.UUID) *uuid.UUID {
	if r.RequesterID == userID {
		return r.SwiperID
	}
	if r.SwiperID != nil && *r.SwiperID == userID {
		req := r.RequesterID
		return &req
	}
	return nil
}
