package notify

import (
	"log/slog"

	"github.com/erazemk/najdeno/internal/model"
)

// TransitionKind names an accepted claim-workflow change.
type TransitionKind string

const (
	ClaimRequested TransitionKind = "claim_requested"
	ClaimApproved  TransitionKind = "claim_approved"
	ClaimDenied    TransitionKind = "claim_denied"
	ItemRemoved    TransitionKind = "item_removed"
)

// Transition describes a change the claim service has committed.
type Transition struct {
	Kind TransitionKind
	Item model.Item
	// Message is the claim request for ClaimRequested.
	Message *model.Message
	// Affected are the users involved besides the poster: the approved
	// claimant, the denied claimant, or everyone with a pending claim on
	// a removed item.
	Affected []int64
}

// Delivery is one event addressed to one user.
type Delivery struct {
	UserID int64
	Event  Event
}

// Plan computes who hears about a transition and what they receive.
// Each user appears at most once.
func Plan(t Transition) []Delivery {
	var targets []int64
	var ev Event

	switch t.Kind {
	case ClaimRequested:
		if t.Message == nil {
			return nil
		}
		targets = []int64{t.Item.PostedBy}
		ev = Event{Type: EventNewClaimRequest, Data: ClaimRequestPayload{
			ItemID:    t.Item.ID,
			ItemTitle: t.Item.Title,
			Message:   *t.Message,
		}}
	case ClaimApproved:
		targets = append(append(targets, t.Affected...), t.Item.PostedBy)
		ev = Event{Type: EventClaimStatusUpdated, Data: ClaimStatusPayload{ItemID: t.Item.ID, Status: StatusApproved}}
	case ClaimDenied:
		targets = append(append(targets, t.Affected...), t.Item.PostedBy)
		ev = Event{Type: EventClaimStatusUpdated, Data: ClaimStatusPayload{ItemID: t.Item.ID, Status: StatusDenied}}
	case ItemRemoved:
		targets = t.Affected
		ev = Event{Type: EventItemDeleted, Data: ItemDeletedPayload{ItemID: t.Item.ID}}
	default:
		return nil
	}

	seen := make(map[int64]bool, len(targets))
	deliveries := make([]Delivery, 0, len(targets))
	for _, id := range targets {
		if seen[id] {
			continue
		}
		seen[id] = true
		deliveries = append(deliveries, Delivery{UserID: id, Event: ev})
	}
	return deliveries
}

// Router delivers planned events to live connections.
type Router struct {
	dir Directory
}

// NewRouter creates a router backed by dir.
func NewRouter(dir Directory) *Router {
	return &Router{dir: dir}
}

// Notify delivers the events for t and returns how many were sent.
// Offline users and failed sends are skipped.
func (r *Router) Notify(t Transition) int {
	sent := 0
	for _, d := range Plan(t) {
		if r.SendTo(d.UserID, d.Event) {
			sent++
		}
	}
	return sent
}

// SendTo delivers ev to userID's connection if there is one.
func (r *Router) SendTo(userID int64, ev Event) bool {
	c, ok := r.dir.Lookup(userID)
	if !ok {
		slog.Debug("user offline, dropping event", "user", userID, "event", ev.Type)
		return false
	}
	if err := c.Send(ev); err != nil {
		slog.Debug("event delivery failed", "user", userID, "event", ev.Type, "conn", c.ID(), "error", err)
		return false
	}
	return true
}

// Broadcast sends ev to every open connection and returns how many
// accepted it.
func (r *Router) Broadcast(ev Event) int {
	sent := 0
	for _, c := range r.dir.Connections() {
		if err := c.Send(ev); err != nil {
			slog.Debug("broadcast delivery failed", "event", ev.Type, "conn", c.ID(), "error", err)
			continue
		}
		sent++
	}
	return sent
}
