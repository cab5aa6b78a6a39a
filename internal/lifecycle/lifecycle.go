// Package lifecycle is the single authority for SwipeRequest status
// transitions. Every mutation path consults this table instead of
// encoding its own status checks.
package lifecycle

import (
	"github.com/jwall29/swiply/internal/domain"
)

// Event is a lifecycle action applied to a request.
type Event string

const (
	// EventAccept is a swiper accepting an open request.
	EventAccept Event = "accept"
	// EventStartMeeting fires at meeting time via the task webhook.
	EventStartMeeting Event = "start_meeting"
	// EventMarkSwiped is the swipe confirmation at the dining hall.
	EventMarkSwiped Event = "mark_swiped"
	// EventSubmitReview is a review committing for the request.
	EventSubmitReview Event = "submit_review"
	// EventCancel is a full cancellation by the requester (or of an
	// unassigned request).
	EventCancel Event = "cancel"
	// EventUnassign is the swiper backing out of an assigned request,
	// freeing it for a new swiper.
	EventUnassign Event = "unassign"
)

var transitions = map[domain.RequestStatus]map[Event]domain.RequestStatus{
	domain.StatusOpen: {
		EventAccept: domain.StatusScheduled,
		EventCancel: domain.StatusCanceled,
	},
	domain.StatusScheduled: {
		EventStartMeeting: domain.StatusInProgress,
		EventUnassign:     domain.StatusOpen,
		EventCancel:       domain.StatusCanceled,
	},
	domain.StatusInProgress: {
		EventMarkSwiped: domain.StatusAwaitingReview,
		EventUnassign:   domain.StatusOpen,
		EventCancel:     domain.StatusCanceled,
	},
	domain.StatusAwaitingReview: {
		EventSubmitReview: domain.StatusComplete,
		EventCancel:       domain.StatusCanceled,
	},
	// The second review of a completed request re-asserts complete.
	domain.StatusComplete: {
		EventSubmitReview: domain.StatusComplete,
	},
}

// Next returns the status reached by applying event to current, and
// whether that transition is legal.
func Next(current domain.RequestStatus, event Event) (domain.RequestStatus, bool) {
	next, ok := transitions[current][event]
	return next, ok
}

// Allowed reports whether event is legal from current.
func Allowed(current domain.RequestStatus, event Event) bool {
	_, ok := transitions[current][event]
	return ok
}

// CanEditDirectly reports whether location/meeting time may be written
// without a change proposal.
func CanEditDirectly(s domain.RequestStatus) bool {
	return s == domain.StatusOpen
}
