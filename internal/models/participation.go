package models

// Participation links a user to a proposal. At most one row exists per
// (user, proposal) pair. CanEdit grants lifecycle control over the proposal;
// the creator's initial participation always carries it.
type Participation struct {
	BaseModel

	UserID     string `gorm:"type:uuid;not null;uniqueIndex:idx_participation_user_proposal" json:"user_id"`
	ProposalID string `gorm:"type:uuid;not null;uniqueIndex:idx_participation_user_proposal;index" json:"proposal_id"`
	CanEdit    bool   `gorm:"not null;default:false" json:"can_edit"`

	User     *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Proposal *TripProposal `gorm:"foreignKey:ProposalID" json:"-"`
}
