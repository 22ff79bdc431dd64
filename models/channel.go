package models

import "time"

type Channel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedBy   uint      `gorm:"index;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership is the durable record that a user belongs to a channel.
// At most one row exists per (channel, user).
type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID uint      `gorm:"uniqueIndex:idx_membership_channel_user;not null" json:"channel_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_membership_channel_user;index;not null" json:"user_id"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
}

// Member is a membership enriched with the user's current profile.
type Member struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Color     string    `json:"color"`
	IsCreator bool      `json:"is_creator"`
	JoinedAt  time.Time `json:"joined_at"`
}
