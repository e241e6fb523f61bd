package model

import "time"

// Item is a lost or found item posted by a user.
type Item struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Status      string     `json:"status"`
	PostedBy    int64      `json:"posted_by"`
	ClaimedBy   *int64     `json:"claimed_by"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	PostedAt    time.Time  `json:"posted_at"`
}

// Item statuses. "found" is also what an approved claim sets.
const (
	ItemStatusLost  = "lost"
	ItemStatusFound = "found"
)

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s string) bool {
	return s == ItemStatusLost || s == ItemStatusFound
}

// ClaimState is the position of an item in the claim workflow.
type ClaimState string

const (
	ClaimOpen     ClaimState = "open"
	ClaimPending  ClaimState = "pending"
	ClaimResolved ClaimState = "resolved"
)

// ClaimState derives the workflow state from the stored fields.
func (i *Item) ClaimState() ClaimState {
	switch {
	case i.ClaimedBy == nil:
		return ClaimOpen
	case i.ResolvedAt != nil:
		return ClaimResolved
	default:
		return ClaimPending
	}
}

// IsPoster reports whether userID posted the item.
func (i *Item) IsPoster(userID int64) bool {
	return i.PostedBy == userID
}

// IsClaimant reports whether userID is the currently recorded claimant.
func (i *Item) IsClaimant(userID int64) bool {
	return i.ClaimedBy != nil && *i.ClaimedBy == userID
}

// ItemFilter narrows item listings. Zero values match everything.
type ItemFilter struct {
	Status   string
	Search   string
	PostedBy int64
}
