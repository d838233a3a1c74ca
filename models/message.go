package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderMessage represents a message in an order conversation
type OrderMessage struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	OrderID     uint                        `gorm:"not null;index" json:"order_id"`
	SenderID    uint                        `gorm:"not null;index" json:"sender_id"` // foreign key to users table
	Sender      User                        `gorm:"foreignKey:SenderID" json:"sender"`
	SenderRole  Role                        `gorm:"type:varchar(20);not null" json:"sender_role"` // derived from the sender's relation to the order
	Message     string                      `gorm:"type:text;not null" json:"message"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	CreatedAt   time.Time                   `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the OrderMessage model
func (OrderMessage) TableName() string {
	return "order_messages"
}
