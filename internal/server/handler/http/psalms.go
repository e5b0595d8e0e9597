package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/models"
	"github.com/cabellfineart/gallery-api/internal/schema"
	"github.com/cabellfineart/gallery-api/internal/service"
)

// PsalmsService defines the psalms catalog operations required by the HTTP handlers.
type PsalmsService interface {
	List(ctx context.Context) ([]models.Psalm, error)
	Metadata(ctx context.Context) ([]json.RawMessage, error)
	Create(ctx context.Context, p models.Psalm) error
	Update(ctx context.Context, psalms []models.Psalm) error
	Delete(ctx context.Context, number int64) error
	Upload(ctx context.Context, number int64, kind service.ImageKind, r io.Reader) error
}

// PsalmsHandler handles HTTP requests for the psalms catalog.
type PsalmsHandler struct {
	PsalmsService PsalmsService
	Failures      *Failures
	// MaxUploadBytes caps upload request bodies; zero disables the cap.
	MaxUploadBytes int64
}

// List returns every psalm ordered by number.
func (h *PsalmsHandler) List(w http.ResponseWriter, r *http.Request) {
	psalms, err := h.PsalmsService.List(r.Context())
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, psalms)
}

// Metadata returns the psalms display metadata.
func (h *PsalmsHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	docs, err := h.PsalmsService.Metadata(r.Context())
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Create adds a new psalm. A taken number is rejected with 400.
func (h *PsalmsHandler) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	p, err := schema.Psalm(raw)
	if validationFailed(w, err) {
		return
	}

	err = h.PsalmsService.Create(r.Context(), *p)
	if errors.Is(err, models.ErrConflict) {
		writeMsg(w, http.StatusBadRequest, fmt.Sprintf("Psalm %d already exists", p.Number))
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusCreated)
}

// Update replaces one psalm or a list of psalms, all or nothing.
func (h *PsalmsHandler) Update(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	psalms, err := schema.Psalms(raw)
	if validationFailed(w, err) {
		return
	}

	err = h.PsalmsService.Update(r.Context(), psalms)
	var ke *models.KeyError
	if errors.As(err, &ke) && errors.Is(err, models.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Psalm %s does not exist", ke.Key))
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// Delete removes a psalm by number. Unknown numbers succeed.
func (h *PsalmsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	number, err := schema.Number(raw)
	if validationFailed(w, err) {
		return
	}
	if err := h.PsalmsService.Delete(r.Context(), number); err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// Upload stores the image in the "file" part as the thumbnail or demo image
// of the psalm named by "number", as chosen by "imageType".
func (h *PsalmsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, done, ok := readUpload(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer done()

	number, err := strconv.ParseInt(r.FormValue("number"), 10, 64)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Please specify a psalm")
		return
	}
	kind, err := service.ParseImageKind(r.FormValue("imageType"))
	if err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.PsalmsService.Upload(r.Context(), number, kind, file)
	switch {
	case err == nil:
		writeEmpty(w, http.StatusCreated)
	case errors.Is(err, models.ErrNotFound):
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Psalm %d not found", number))
	case errors.Is(err, imaging.ErrNotImage):
		writeMsg(w, http.StatusBadRequest, msgInvalidImage)
	default:
		h.Failures.Internal(w, r, err)
	}
}
