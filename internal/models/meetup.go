package models

import "time"

// Meetup is a proposed meeting on a trip. Time is nullable, meaning the
// moment has not been decided yet; such meetups sort last in listings.
type Meetup struct {
	BaseModel

	Location   string     `json:"location,omitempty"`
	Time       *time.Time `gorm:"index" json:"time,omitempty"`
	CreatorID  string     `gorm:"type:uuid;not null;index" json:"creator_id"`
	ProposalID string     `gorm:"type:uuid;not null;index" json:"proposal_id"`

	Creator *User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}
