package domain

import "time"

// Message priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// MessageResponse is an admin reply attached to a contact message.
type MessageResponse struct {
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
	SentBy  string    `json:"sent_by"`
}

// Message is an inbound contact-form message.
type Message struct {
	ID        string           `json:"id"`
	From      string           `json:"from"`
	Email     string           `json:"email"`
	Subject   string           `json:"subject"`
	Content   string           `json:"content"`
	IsRead    bool             `json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	ReadBy    string           `json:"read_by,omitempty"`
	Response  *MessageResponse `json:"response,omitempty"`
	Priority  string           `json:"priority"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
