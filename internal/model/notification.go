package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationSayHello    NotificationType = "say-hello"
	NotificationJoinRequest NotificationType = "join-request"
)

type Notification struct {
	ID               uuid.UUID        `json:"id"`
	RecipientID      string           `json:"recipient_id"`
	SenderID         *string          `json:"sender_id,omitempty"`
	RelatedCheckinID *uuid.UUID       `json:"related_checkin_id,omitempty"`
	Type             NotificationType `json:"type"`
	PayloadImageURL  string           `json:"payload_image_url"`
	Message          string           `json:"message"`
	Read             bool             `json:"read"`
	CreatedAt        time.Time        `json:"created_at"`
}

type ClearNotificationsResponse struct {
	Cleared int `json:"cleared"`
}
