package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/imaging"
)

// ProofStore keeps uploaded images.
type ProofStore interface {
	SaveProof(ctx context.Context, data []byte, mime string) (int64, error)
	GetProof(ctx context.Context, id int64) ([]byte, string, error)
	DeleteProof(ctx context.Context, id int64) error
}

// multipartOverhead is allowed on top of the image size for form fields
// and part headers.
const multipartOverhead = 1 << 20

// UploadsHandler stores and serves item photos and claim proofs.
type UploadsHandler struct {
	Store    ProofStore
	Images   imaging.Normalizer
	MaxBytes int64
}

func uploadURL(id int64) string {
	return fmt.Sprintf("/api/uploads/%d", id)
}

// parseForm limits the body and parses a multipart form.
func (h *UploadsHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = imaging.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	return r.ParseMultipartForm(limit)
}

// saveFile normalizes the file in the given form field and stores it.
// It returns 0 if the field is empty.
func (h *UploadsHandler) saveFile(r *http.Request, field string) (int64, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	normalizer := h.Images
	if normalizer.MaxBytes == 0 {
		normalizer.MaxBytes = h.MaxBytes
	}
	img, err := normalizer.Process(file)
	if err != nil {
		return 0, err
	}

	id, err := h.Store.SaveProof(r.Context(), img.Data, img.MIME)
	if err != nil {
		return 0, err
	}
	slog.Info("image stored", "id", id, "width", img.Width, "height", img.Height, "bytes", len(img.Data))
	return id, nil
}

// discard removes an image stored for a request that then failed.
func (h *UploadsHandler) discard(ctx context.Context, id int64) {
	if err := h.Store.DeleteProof(ctx, id); err != nil {
		slog.Warn("failed to remove unused image", "id", id, "error", err)
	}
}

// uploadError reports a failed saveFile.
func uploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
	case errors.Is(err, http.ErrNotMultipart):
		jsonError(w, http.StatusBadRequest, "multipart form required")
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or GIF")
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		slog.Error("storing image", "error", err)
		jsonError(w, http.StatusBadRequest, "invalid image")
	}
}

// Upload handles POST /api/uploads.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		uploadError(w, err)
		return
	}

	id, err := h.saveFile(r, "image")
	if err != nil {
		uploadError(w, err)
		return
	}
	if id == 0 {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{"imageUrl": uploadURL(id)})
}

// Get handles GET /api/uploads/{id}.
func (h *UploadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid upload id")
		return
	}

	data, mime, err := h.Store.GetProof(r.Context(), id)
	if err != nil {
		slog.Error("loading image", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(data)
}
