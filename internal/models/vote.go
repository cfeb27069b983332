package models

// Vote records one user's upvote on one post. The composite primary key
// guarantees at most one vote per (user, post).
type Vote struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID uint `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the historical table name.
func (Vote) TableName() string {
	return "upvotes"
}

// Vote directions.
const (
	VoteRemove = 0
	VoteAdd    = 1
)

// VoteInput is the cast/retract payload. Pointers distinguish absent fields from zero.
type VoteInput struct {
	PostID *int64 `json:"post_id"`
	Dir    *int   `json:"dir"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
