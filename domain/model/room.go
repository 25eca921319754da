package model

import (
	"fmt"
	"time"
)

type Room struct {
	ID        string    `json:"id" gorm:"type:VARCHAR(36);primaryKey" bson:"_id"`
	Token     string    `json:"token" gorm:"type:VARCHAR(32);not null;uniqueIndex" bson:"token"`
	Name      string    `json:"name" gorm:"type:VARCHAR(255);not null" bson:"name"`
	CreatedAt time.Time `json:"createdAt" gorm:"type:TIMESTAMP with time zone;not null" bson:"created_at"`
}

func (Room) TableName() string {
	return "rooms"
}

func DefaultRoomName(token string) string {
	return fmt.Sprintf("Room %s", token)
}
