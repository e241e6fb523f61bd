package claim

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

// Repository is the item storage the workflow runs against. Each method
// is atomic; methods that write report a missing item with an error
// matching model.ErrNotFound.
type Repository interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) (bool, error)
	SubmitClaimRequest(ctx context.Context, m model.Message) (*model.Message, bool, error)
	ReserveItem(ctx context.Context, itemID, userID int64) (bool, error)
	ResolveClaim(ctx context.Context, itemID, receiverID int64, at time.Time) (*model.Message, error)
	ClearClaim(ctx context.Context, itemID int64) (*int64, error)
	ListInbox(ctx context.Context, userID int64) ([]model.InboxEntry, error)
	ListSenders(ctx context.Context, itemID, exclude int64) ([]int64, error)
}

// Notifier receives committed transitions. It must not fail the caller.
type Notifier interface {
	Notify(t notify.Transition) int
}

// Service runs claim transitions.
type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	locks    itemLocks
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for message timestamps and resolutions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. A nil notifier drops all events.
func NewService(repo Repository, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitClaim records a claim request from claimant to the item's
// poster. The claimant becomes the item's claimant only if it has none.
func (s *Service) SubmitClaim(ctx context.Context, itemID int64, claimant auth.Identity, body, proofURL string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, model.ErrEmptyMessage
	}

	unlock := s.locks.lock(itemID)
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		unlock()
		return nil, err
	}
	if item.IsPoster(claimant.UserID) {
		unlock()
		return nil, model.ErrSelfClaim
	}

	stored, won, err := s.repo.SubmitClaimRequest(ctx, model.Message{
		ItemID:     itemID,
		Kind:       model.MessageKindClaimRequest,
		SenderID:   claimant.UserID,
		SenderName: claimant.Name,
		ReceiverID: item.PostedBy,
		Body:       body,
		ProofURL:   proofURL,
		Timestamp:  s.now().UTC(),
	})
	unlock()
	if err != nil {
		return nil, storageError("submitting claim", err)
	}
	if won {
		id := claimant.UserID
		item.ClaimedBy = &id
	}

	slog.Info("claim request submitted", "item", itemID, "claimant", claimant.UserID, "pending", won)
	s.notify(notify.Transition{Kind: notify.ClaimRequested, Item: *item, Message: stored})
	return stored, nil
}

// ApproveClaim resolves the item in favour of whoever sent the poster the
// most recent message. Only the poster may approve.
func (s *Service) ApproveClaim(ctx context.Context, itemID, actor int64) (*model.Item, error) {
	unlock := s.locks.lock(itemID)
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		unlock()
		return nil, err
	}
	if !item.IsPoster(actor) {
		unlock()
		return nil, model.ErrUnauthorized
	}

	chosen, err := s.repo.ResolveClaim(ctx, itemID, actor, s.now().UTC())
	if err != nil {
		unlock()
		return nil, storageError("approving claim", err)
	}
	if chosen == nil {
		unlock()
		return nil, model.ErrNoClaimFound
	}

	updated, err := s.loadItem(ctx, itemID)
	unlock()
	if err != nil {
		return nil, err
	}

	if item.ClaimedBy != nil && *item.ClaimedBy != chosen.SenderID {
		slog.Warn("approved claimant differs from pending claimant",
			"item", itemID, "pending", *item.ClaimedBy, "approved", chosen.SenderID)
	}
	slog.Info("claim approved", "item", itemID, "claimant", chosen.SenderID)
	s.notify(notify.Transition{Kind: notify.ClaimApproved, Item: *updated, Affected: []int64{chosen.SenderID}})
	return updated, nil
}

// DenyClaim clears the claimant so the item is open again. Only the
// poster may deny.
func (s *Service) DenyClaim(ctx context.Context, itemID, actor int64) (*model.Item, error) {
	unlock := s.locks.lock(itemID)
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		unlock()
		return nil, err
	}
	if !item.IsPoster(actor) {
		unlock()
		return nil, model.ErrUnauthorized
	}

	previous, err := s.repo.ClearClaim(ctx, itemID)
	if err != nil {
		unlock()
		return nil, storageError("denying claim", err)
	}

	updated, err := s.loadItem(ctx, itemID)
	unlock()
	if err != nil {
		return nil, err
	}

	var affected []int64
	if previous != nil {
		affected = append(affected, *previous)
		slog.Info("claim denied", "item", itemID, "claimant", *previous)
	} else {
		slog.Info("claim denied with no claimant", "item", itemID)
	}
	s.notify(notify.Transition{Kind: notify.ClaimDenied, Item: *updated, Affected: affected})
	return updated, nil
}

// Reserve records actor as claimant without a message. It fails if the
// item already has a different claimant.
func (s *Service) Reserve(ctx context.Context, itemID, actor int64) (*model.Item, error) {
	unlock := s.locks.lock(itemID)
	defer unlock()

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsPoster(actor) {
		return nil, model.ErrSelfClaim
	}
	if item.IsClaimant(actor) {
		return item, nil
	}

	won, err := s.repo.ReserveItem(ctx, itemID, actor)
	if err != nil {
		return nil, storageError("reserving item", err)
	}
	if !won {
		return nil, model.ErrAlreadyClaimed
	}

	slog.Info("item reserved", "item", itemID, "claimant", actor)
	return s.loadItem(ctx, itemID)
}

// DeleteItem removes an item and its messages. Only the poster may
// delete. Everyone who messaged the poster about it is told.
func (s *Service) DeleteItem(ctx context.Context, itemID, actor int64) error {
	unlock := s.locks.lock(itemID)
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		unlock()
		return err
	}
	if !item.IsPoster(actor) {
		unlock()
		return model.ErrUnauthorized
	}

	claimants, err := s.repo.ListSenders(ctx, itemID, item.PostedBy)
	if err != nil {
		unlock()
		return storageError("listing claimants", err)
	}

	deleted, err := s.repo.DeleteItem(ctx, itemID)
	unlock()
	if err != nil {
		return storageError("deleting item", err)
	}
	if !deleted {
		return model.ErrNotFound
	}

	slog.Info("item deleted", "item", itemID, "notified", len(claimants))
	s.notify(notify.Transition{Kind: notify.ItemRemoved, Item: *item, Affected: claimants})
	return nil
}

// Inbox lists the messages addressed to actor on items actor posted.
func (s *Service) Inbox(ctx context.Context, actor int64) ([]model.InboxEntry, error) {
	entries, err := s.repo.ListInbox(ctx, actor)
	if err != nil {
		return nil, storageError("loading inbox", err)
	}
	return entries, nil
}

func (s *Service) loadItem(ctx context.Context, itemID int64) (*model.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, storageError("loading item", err)
	}
	if item == nil {
		return nil, model.ErrNotFound
	}
	return item, nil
}

func (s *Service) notify(t notify.Transition) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(t)
}

// storageError keeps not-found errors as they are and marks everything
// else as a persistence failure.
func storageError(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", model.ErrPersistence, op, err)
}
