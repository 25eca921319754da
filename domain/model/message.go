package model

import "time"

type Message struct {
	ID        string    `json:"id" gorm:"type:VARCHAR(36);primaryKey" bson:"_id"`
	RoomToken string    `json:"roomToken" gorm:"type:VARCHAR(32);not null;index:idx_messages_room_created" bson:"room_token"`
	Author    string    `json:"author" gorm:"type:VARCHAR(64);not null" bson:"author"`
	Body      string    `json:"body" gorm:"type:TEXT;not null" bson:"body"`
	CreatedAt time.Time `json:"createdAt" gorm:"type:TIMESTAMP with time zone;not null;index:idx_messages_room_created" bson:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
