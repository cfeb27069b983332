package models

import (
	"time"
)

// Post represents a link or text shared by a user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	// No column default: GORM would write it in place of an explicit false.
	Published bool      `gorm:"not null" json:"published"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner"`
	// Votes is not persisted; computed at query time
	Votes int64 `gorm:"->;-:migration" json:"votes"`
}

// PostOut is the public projection of a Post, including its owner and vote count.
type PostOut struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   uint      `json:"owner_id"`
	Owner     UserOut   `json:"owner"`
	Votes     int64     `json:"votes"`
}

// Out returns the public projection of p.
func (p *Post) Out() PostOut {
	return PostOut{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		OwnerID:   p.OwnerID,
		Owner:     p.Owner.Out(),
		Votes:     p.Votes,
	}
}

// PostInput is the create and update payload. Published defaults to true when omitted.
type PostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published,omitempty"`
}

// IsPublished resolves the optional Published flag.
func (in PostInput) IsPublished() bool {
	if in.Published == nil {
		return true
	}
	return *in.Published
}

// PostFilter narrows a post listing.
type PostFilter struct {
	Limit  int
	Skip   int
	Search string
}
