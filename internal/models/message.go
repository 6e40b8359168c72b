package models

// Message is an immutable chat entry on a proposal. CreatedAt drives the
// newest-first ordering in the detail view.
type Message struct {
	BaseModel

	Content    string `gorm:"type:text;not null" json:"content"`
	AuthorID   string `gorm:"type:uuid;not null;index" json:"author_id"`
	ProposalID string `gorm:"type:uuid;not null;index" json:"proposal_id"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
