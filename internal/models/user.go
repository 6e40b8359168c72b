package models

// User represents a registered account. Users are never deleted; proposals
// they created live on through their participations.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Alias       string `json:"alias"`
	Description string `gorm:"type:text" json:"description"`

	Participations []Participation `gorm:"foreignKey:UserID" json:"-"`
}
