package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
)

// Repository is the message storage chat needs.
type Repository interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	AppendMessage(ctx context.Context, m model.Message) (*model.Message, error)
	ListMessages(ctx context.Context, itemID int64) ([]model.Message, error)
}

// Service persists chat messages and fans them out to room members.
type Service struct {
	repo  Repository
	rooms *Rooms
	now   func() time.Time
}

// NewService creates a chat service over repo and rooms.
func NewService(repo Repository, rooms *Rooms) *Service {
	return &Service{repo: repo, rooms: rooms, now: time.Now}
}

// Rooms returns the room table messages are sent to.
func (s *Service) Rooms() *Rooms {
	return s.rooms
}

// Join adds c to room after checking that viewer takes part in the
// item's conversation.
func (s *Service) Join(ctx context.Context, room RoomID, viewer int64, c notify.Conn) error {
	if _, err := s.participant(ctx, room, viewer); err != nil {
		return err
	}
	s.rooms.Join(room, viewer, c)
	return nil
}

// Post stores a message from sender in room and sends it to the room's
// connections that belong to the poster or the current claimant. Other
// connections, such as those of a denied claimant, are removed from the
// room first. The poster writes to the current claimant; anyone else
// writes to the poster.
func (s *Service) Post(ctx context.Context, room RoomID, sender auth.Identity, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, model.ErrEmptyMessage
	}

	item, err := s.participant(ctx, room, sender.UserID)
	if err != nil {
		return nil, err
	}

	receiver := item.PostedBy
	if item.IsPoster(sender.UserID) {
		if item.ClaimedBy == nil {
			return nil, model.ErrNoClaimant
		}
		receiver = *item.ClaimedBy
	}

	stored, err := s.repo.AppendMessage(ctx, model.Message{
		ItemID:     item.ID,
		Kind:       model.MessageKindChat,
		SenderID:   sender.UserID,
		SenderName: sender.Name,
		ReceiverID: receiver,
		Body:       body,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		return nil, storageError("storing message", err)
	}

	if n := s.rooms.Prune(room, func(userID int64) bool {
		return item.IsPoster(userID) || item.IsClaimant(userID)
	}); n > 0 {
		slog.Debug("removed stale room members", "room", room, "count", n)
	}
	n := s.rooms.Send(room, notify.Event{
		Type: notify.EventRoomMessage,
		Data: notify.RoomMessagePayload{RoomID: room.ItemID(), Message: *stored},
	})
	slog.Debug("chat message posted", "room", room, "sender", sender.UserID, "delivered", n)
	return stored, nil
}

// History returns the room's messages in order.
func (s *Service) History(ctx context.Context, room RoomID, viewer int64) ([]model.Message, error) {
	if _, err := s.participant(ctx, room, viewer); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, room.ItemID())
	if err != nil {
		return nil, storageError("listing messages", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// participant loads the room's item and checks that userID is its
// poster or current claimant.
func (s *Service) participant(ctx context.Context, room RoomID, userID int64) (*model.Item, error) {
	item, err := s.repo.GetItem(ctx, room.ItemID())
	if err != nil {
		return nil, storageError("loading item", err)
	}
	if item == nil {
		return nil, model.ErrNotFound
	}
	if !item.IsPoster(userID) && !item.IsClaimant(userID) {
		return nil, model.ErrUnauthorized
	}
	return item, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", model.ErrPersistence, op, err)
}
