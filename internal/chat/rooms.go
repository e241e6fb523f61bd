// Package chat carries free-form messages between an item's poster and
// its current claimant. Rooms are keyed by item and live only in memory;
// messages are persisted alongside claim requests.
package chat

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/erazemk/najdeno/internal/notify"
)

// RoomID identifies the chat room of an item. It is the item's ID.
type RoomID int64

// RoomOf returns the room for an item.
func RoomOf(itemID int64) RoomID {
	return RoomID(itemID)
}

// ItemID returns the item the room belongs to.
func (r RoomID) ItemID() int64 {
	return int64(r)
}

func (r RoomID) String() string {
	return strconv.FormatInt(int64(r), 10)
}

// member is a connection in a room and the user it joined as.
type member struct {
	conn   notify.Conn
	userID int64
}

// Rooms tracks which connections are in which room. It is safe for
// concurrent use.
type Rooms struct {
	mu      sync.Mutex
	members map[RoomID]map[string]member
}

// NewRooms creates an empty room table.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[RoomID]map[string]member)}
}

// Join adds c to room on behalf of userID. Joining again replaces the
// recorded user.
func (r *Rooms) Join(room RoomID, userID int64, c notify.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[room]
	if !ok {
		m = make(map[string]member)
		r.members[room] = m
	}
	m[c.ID()] = member{conn: c, userID: userID}
}

// Leave removes c from room.
func (r *Rooms) Leave(room RoomID, c notify.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, c.ID())
}

// LeaveAll removes c from every room it joined.
func (r *Rooms) LeaveAll(c notify.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.members {
		r.leaveLocked(room, c.ID())
	}
}

// Prune removes from room every connection whose user fails keep and
// returns how many were removed.
func (r *Rooms) Prune(room RoomID, keep func(userID int64) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, mem := range r.members[room] {
		if !keep(mem.userID) {
			r.leaveLocked(room, id)
			removed++
		}
	}
	return removed
}

func (r *Rooms) leaveLocked(room RoomID, connID string) {
	m, ok := r.members[room]
	if !ok {
		return
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(r.members, room)
	}
}

// Send delivers ev to every member of room and returns how many
// accepted it. Failed sends are skipped.
func (r *Rooms) Send(room RoomID, ev notify.Event) int {
	sent := 0
	for _, c := range r.snapshot(room) {
		if err := c.Send(ev); err != nil {
			slog.Debug("room delivery failed", "room", room, "conn", c.ID(), "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Members returns the IDs of the connections in room, sorted.
func (r *Rooms) Members(room RoomID) []string {
	conns := r.snapshot(room)
	ids := make([]string, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.ID())
	}
	sort.Strings(ids)
	return ids
}

func (r *Rooms) snapshot(room RoomID) []notify.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.members[room]
	out := make([]notify.Conn, 0, len(m))
	for _, mem := range m {
		out = append(out, mem.conn)
	}
	return out
}
