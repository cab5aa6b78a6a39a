package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus is the state of a ChangeProposal. Once a proposal
// leaves pending it is immutable.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalDeclined ProposalStatus = "declined"
)

// ChangeProposal is a negotiated edit to a scheduled request's
// location and/or meeting time, requiring the counter-party's approval.
type ChangeProposal struct {
	ID           uuid.UUID      `json:"id"`
	RequestID    uuid.UUID      `json:"request_id"`
	ProposedByID uuid.UUID      `json:"proposed_by_id"`

	ProposedLocation    *Location  `json:"proposed_location,omitempty"`
	ProposedMeetingTime *time.Time `json:"proposed_meeting_time,omitempty"`

	Status        ProposalStatus `json:"status"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
	RespondedByID *uuid.UUID     `json:"responded_by_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
