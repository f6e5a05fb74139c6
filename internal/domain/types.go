// Package domain holds the wire-level entities shared by the gateway
// client, the state store and the sync engine.
package domain

import "time"

// AuthUser identifies the account the consumer authenticated as. It is
// provided by the embedding application, not fetched from the gateway.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the gateway-side profile of the authenticated account.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Timezone      string    `json:"timezone"`
	ActivePhoneID string    `json:"active_phone_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Phone is a registered sending device. Its PhoneNumber doubles as the
// owner key for threads, messages and heartbeats.
type Phone struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	PhoneNumber       string    `json:"phone_number"`
	MessagesPerMinute int       `json:"messages_per_minute"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MessageThread is one conversation between an owner phone and a contact.
type MessageThread struct {
	ID                 string    `json:"id"`
	Owner              string    `json:"owner"`
	Contact            string    `json:"contact"`
	IsArchived         bool      `json:"is_archived"`
	Color              string    `json:"color"`
	LastMessageContent string    `json:"last_message_content"`
	LastMessageAt      time.Time `json:"last_message_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MessageType distinguishes traffic direction.
type MessageType string

const (
	// MessageTypeOutgoing is a message sent from the owner phone.
	MessageTypeOutgoing MessageType = "mobile-terminated"
	// MessageTypeIncoming is a message received by the owner phone.
	MessageTypeIncoming MessageType = "mobile-originated"
)

// MessageStatus is the delivery state reported by the gateway.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusReceived  MessageStatus = "received"
)

// Message is a single SMS within a thread.
type Message struct {
	ID             string        `json:"id"`
	Owner          string        `json:"owner"`
	Contact        string        `json:"contact"`
	Content        string        `json:"content"`
	Type           MessageType   `json:"type"`
	Status         MessageStatus `json:"status"`
	OrderTimestamp time.Time     `json:"order_timestamp"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Heartbeat records the last time an owner phone reported in.
type Heartbeat struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageSendRequest is the payload for dispatching a new SMS.
type MessageSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}
