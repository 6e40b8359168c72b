package models

import "time"

// ProposalStatus enumerates the lifecycle states of a trip proposal.
type ProposalStatus string

const (
	// StatusOpen accepts new participants, messages, and meetups.
	StatusOpen ProposalStatus = "open"
	// StatusClosed no longer accepts new participants; everything else continues.
	StatusClosed ProposalStatus = "closed_to_new_participants"
	// StatusFinalized is terminal: the proposal is read-only.
	StatusFinalized ProposalStatus = "finalized"
	// StatusCancelled is terminal: the proposal is read-only.
	StatusCancelled ProposalStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusFinalized, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case StatusFinalized, StatusCancelled:
		return true
	case StatusOpen, StatusClosed:
		return false
	}
	return false
}

// Discoverable reports whether proposals in this status appear in listings.
func (s ProposalStatus) Discoverable() bool {
	switch s {
	case StatusOpen, StatusClosed:
		return true
	case StatusFinalized, StatusCancelled:
		return false
	}
	return false
}

// TripProposal is a trip under discussion. It owns its participations,
// messages, and meetups; the storage layer performs no cascading deletes, so
// services purge dependents explicitly before removing a proposal row.
type TripProposal struct {
	BaseModel

	Title           string         `gorm:"not null" json:"title"`
	Destination     string         `json:"destination,omitempty"`
	Budget          *float64       `json:"budget,omitempty"`
	MaxParticipants *int           `json:"max_participants,omitempty"`
	StartDate       *time.Time     `gorm:"index" json:"start_date,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	Status          ProposalStatus `gorm:"type:varchar(32);not null;index" json:"status"`

	CreatorID string `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator   *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Participations []Participation `gorm:"foreignKey:ProposalID" json:"participations,omitempty"`
}
