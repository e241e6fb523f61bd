package model

import "time"

// Message is a claim request or chat message attached to an item.
// Messages are immutable once stored.
type Message struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	Kind       string    `json:"kind"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	ReceiverID int64     `json:"receiver_id"`
	Body       string    `json:"message"`
	ProofURL   string    `json:"proof_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Message kinds.
const (
	MessageKindClaimRequest = "claim_request"
	MessageKindChat         = "chat"
)

// InboxEntry is a message addressed to a poster, joined with its item.
type InboxEntry struct {
	ItemID     int64     `json:"item_id"`
	ItemTitle  string    `json:"item_title"`
	ItemStatus string    `json:"item_status"`
	ClaimedBy  *int64    `json:"claimed_by"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"message"`
	ProofURL   string    `json:"proof_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
