package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/claim"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
)

// Broadcaster pushes an event to every connected client.
type Broadcaster interface {
	Broadcast(ev notify.Event) int
}

// ItemsHandler handles item, claim and chat endpoints.
type ItemsHandler struct {
	DB          *sql.DB
	Claims      *claim.Service
	Chat        *chat.Service
	Broadcaster Broadcaster
	Uploads     *UploadsHandler
}

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Status      string `json:"status"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type claimQueuedResponse struct {
	Status  string         `json:"status"`
	Message *model.Message `json:"message"`
}

func isMultipart(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

// readItemRequest accepts either JSON or a multipart form with an
// optional "image" file.
func (h *ItemsHandler) readItemRequest(w http.ResponseWriter, r *http.Request) (*itemRequest, bool) {
	var req itemRequest
	if !isMultipart(r) {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return nil, false
		}
		return &req, true
	}

	if err := h.Uploads.parseForm(w, r); err != nil {
		uploadError(w, err)
		return nil, false
	}
	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Status = r.FormValue("status")
	req.ImageURL = r.FormValue("image_url")

	imageID, err := h.Uploads.saveFile(r, "image")
	if err != nil {
		uploadError(w, err)
		return nil, false
	}
	if imageID != 0 {
		req.ImageURL = uploadURL(imageID)
	}
	return &req, true
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{Status: q.Get("status"), Search: q.Get("search")}
	if filter.Status != "" && !model.ValidItemStatus(filter.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	h.list(w, r, filter)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ItemFilter{PostedBy: caller(r).UserID})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, filter model.ItemFilter) {
	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("listing items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readItemRequest(w, r)
	if !ok {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if !model.ValidItemStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "status must be lost or found")
		return
	}

	poster := caller(r)
	item, err := store.CreateItem(r.Context(), h.DB, req.Title, req.Description, req.ImageURL, req.Status, poster.UserID)
	if err != nil {
		slog.Error("creating item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item posted", "item", item.ID, "status", item.Status, "poster", poster.UserID)
	if h.Broadcaster != nil {
		h.Broadcaster.Broadcast(notify.Event{Type: notify.EventBroadcastItem, Data: item})
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Only the poster may edit, and only
// the descriptive fields; empty fields keep their current value.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		domainError(w, r, err, "failed to update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if !item.IsPoster(caller(r).UserID) {
		jsonError(w, http.StatusForbidden, model.ErrUnauthorized.Error())
		return
	}

	req, ok := h.readItemRequest(w, r)
	if !ok {
		return
	}
	if t := strings.TrimSpace(req.Title); t != "" {
		item.Title = t
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.ImageURL != "" {
		item.ImageURL = req.ImageURL
	}
	if req.Status != "" {
		if !model.ValidItemStatus(req.Status) {
			jsonError(w, http.StatusBadRequest, "status must be lost or found")
			return
		}
		item.Status = req.Status
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, item.Title, item.Description, item.ImageURL, item.Status); err != nil {
		slog.Error("updating item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Claims.DeleteItem(r.Context(), id, caller(r).UserID); err != nil {
		domainError(w, r, err, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Claim handles POST /api/items/{id}/claim.
func (h *ItemsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Claims.Reserve(r.Context(), id, caller(r).UserID)
	if err != nil {
		domainError(w, r, err, "claim failed")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ClaimRequest handles POST /api/items/{id}/claim-request. The body is
// JSON or a multipart form with a "message" field and an optional
// "proof" image.
func (h *ItemsHandler) ClaimRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body, proofURL string
	var proofID int64
	if isMultipart(r) {
		if err := h.Uploads.parseForm(w, r); err != nil {
			uploadError(w, err)
			return
		}
		body = r.FormValue("message")
		if strings.TrimSpace(body) == "" {
			jsonError(w, http.StatusBadRequest, model.ErrEmptyMessage.Error())
			return
		}
		// Reject requests that cannot succeed before storing the proof.
		if err := h.checkClaimable(r, id); err != nil {
			domainError(w, r, err, "failed to send claim request")
			return
		}
		var err error
		proofID, err = h.Uploads.saveFile(r, "proof")
		if err != nil {
			uploadError(w, err)
			return
		}
		if proofID != 0 {
			proofURL = uploadURL(proofID)
		}
	} else {
		var req messageRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		body = req.Message
	}

	msg, err := h.Claims.SubmitClaim(r.Context(), id, caller(r), body, proofURL)
	if err != nil {
		if proofID != 0 {
			h.Uploads.discard(r.Context(), proofID)
		}
		domainError(w, r, err, "failed to send claim request")
		return
	}
	jsonResponse(w, http.StatusOK, claimQueuedResponse{Status: "queued", Message: msg})
}

// checkClaimable reports whether the caller may file a claim on item id.
func (h *ItemsHandler) checkClaimable(r *http.Request, id int64) error {
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		return fmt.Errorf("%w: loading item: %w", model.ErrPersistence, err)
	}
	if item == nil {
		return model.ErrNotFound
	}
	if item.IsPoster(caller(r).UserID) {
		return model.ErrSelfClaim
	}
	return nil
}

// MarkClaimed handles POST /api/items/{id}/mark-claimed.
func (h *ItemsHandler) MarkClaimed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Claims.ApproveClaim(r.Context(), id, caller(r).UserID)
	if err != nil {
		domainError(w, r, err, "mark claimed failed")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DenyClaim handles POST /api/items/{id}/deny-claim.
func (h *ItemsHandler) DenyClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Claims.DenyClaim(r.Context(), id, caller(r).UserID)
	if err != nil {
		domainError(w, r, err, "deny claim failed")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Inbox handles GET /api/items/claim-requests/inbox.
func (h *ItemsHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Claims.Inbox(r.Context(), caller(r).UserID)
	if err != nil {
		domainError(w, r, err, "failed to load inbox")
		return
	}
	if entries == nil {
		entries = []model.InboxEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Messages handles GET /api/items/{id}/messages.
func (h *ItemsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	messages, err := h.Chat.History(r.Context(), chat.RoomOf(id), caller(r).UserID)
	if err != nil {
		domainError(w, r, err, "failed to fetch messages")
		return
	}
	jsonResponse(w, http.StatusOK, messages)
}

// PostMessage handles POST /api/items/{id}/message.
func (h *ItemsHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.Chat.Post(r.Context(), chat.RoomOf(id), caller(r), req.Message)
	if err != nil {
		domainError(w, r, err, "failed to send message")
		return
	}
	jsonResponse(w, http.StatusOK, msg)
}
