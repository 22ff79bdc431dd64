package models

import "time"

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID uint      `gorm:"index:idx_message_channel_created;not null" json:"channel_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_message_channel_created" json:"created_at"`

	// filled from the sender's current profile, never persisted
	Username string `gorm:"-" json:"username"`
	Color    string `gorm:"-" json:"color"`
}
