package notify

import "github.com/erazemk/najdeno/internal/model"

// Event types sent to clients.
const (
	EventNewClaimRequest    = "new_claim_request"
	EventClaimStatusUpdated = "claim_status_updated"
	EventRoomMessage        = "room_message"
	EventBroadcastItem      = "broadcast_item"
	EventItemDeleted        = "item_deleted"
	EventError              = "error"
)

// Claim decisions carried by EventClaimStatusUpdated.
const (
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Event is a single frame pushed to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ClaimRequestPayload is the data of EventNewClaimRequest.
type ClaimRequestPayload struct {
	ItemID    int64         `json:"itemId"`
	ItemTitle string        `json:"itemTitle"`
	Message   model.Message `json:"message"`
}

// ClaimStatusPayload is the data of EventClaimStatusUpdated.
type ClaimStatusPayload struct {
	ItemID int64  `json:"itemId"`
	Status string `json:"status"`
}

// RoomMessagePayload is the data of EventRoomMessage.
type RoomMessagePayload struct {
	RoomID  int64         `json:"roomId"`
	Message model.Message `json:"message"`
}

// ItemDeletedPayload is the data of EventItemDeleted.
type ItemDeletedPayload struct {
	ItemID int64 `json:"itemId"`
}

// ErrorPayload is the data of EventError.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Conn is one live client connection.
type Conn interface {
	// ID is unique for the lifetime of the process.
	ID() string
	// Send writes an event. It must be safe for concurrent use.
	Send(Event) error
}
