package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/middleware"
	"github.com/cabellfineart/gallery-api/internal/models"
	"github.com/cabellfineart/gallery-api/internal/schema"
)

const msgNoArtwork = "No artwork matching the parameters was found"

// ArtService defines the art catalog operations required by the HTTP handlers.
type ArtService interface {
	List(ctx context.Context, filter models.ArtFilter) ([]models.PieceView, error)
	Create(ctx context.Context, p models.ArtPiece) error
	Update(ctx context.Context, pieces []models.ArtPiece) error
	Delete(ctx context.Context, title string) error
	Upload(ctx context.Context, title string, r io.Reader) error
}

// ArtHandler handles HTTP requests for the art catalog.
type ArtHandler struct {
	ArtService ArtService
	Failures   *Failures
	// MaxUploadBytes caps upload request bodies; zero disables the cap.
	MaxUploadBytes int64
}

// List returns the pieces matching a collection and optional series. The
// filter is read from the JSON body, or from the query string on GET.
func (h *ArtHandler) List(w http.ResponseWriter, r *http.Request) {
	var raw any
	if q := r.URL.Query(); r.Method == http.MethodGet && len(q) > 0 {
		obj := make(map[string]any, len(q))
		for k := range q {
			obj[k] = q.Get(k)
		}
		raw = obj
	} else {
		if !middleware.IsJSON(r) {
			writeMsg(w, http.StatusBadRequest, "Request body must be application/json")
			return
		}
		var err error
		if raw, err = decodeBody(w, r); err != nil {
			writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
	}

	filter, err := schema.Filter(raw)
	if validationFailed(w, err) {
		return
	}
	views, err := h.ArtService.List(r.Context(), filter)
	if errors.Is(err, models.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgNoArtwork)
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Create adds a new piece. A taken title is rejected with 400.
func (h *ArtHandler) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	p, err := schema.Piece(raw)
	if validationFailed(w, err) {
		return
	}

	err = h.ArtService.Create(r.Context(), *p)
	if errors.Is(err, models.ErrConflict) {
		writeMsg(w, http.StatusBadRequest, fmt.Sprintf("Piece with title %s already exists", p.Title))
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusCreated)
}

// Update replaces one piece or a list of pieces. If any title is unknown
// nothing is changed and 404 names it.
func (h *ArtHandler) Update(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	pieces, err := schema.Pieces(raw)
	if validationFailed(w, err) {
		return
	}

	err = h.ArtService.Update(r.Context(), pieces)
	var ke *models.KeyError
	if errors.As(err, &ke) && errors.Is(err, models.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Piece with title %s does not exist", ke.Key))
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// Delete removes a piece by title. Unknown titles succeed.
func (h *ArtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	title, err := schema.Title(raw)
	if validationFailed(w, err) {
		return
	}
	if err := h.ArtService.Delete(r.Context(), title); err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// Upload stores the image in the "file" part for the piece named by "title".
func (h *ArtHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, done, ok := readUpload(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer done()

	title := r.FormValue("title")
	if title == "" {
		writeMsg(w, http.StatusBadRequest, "Please specify a piece")
		return
	}

	err := h.ArtService.Upload(r.Context(), title, file)
	switch {
	case err == nil:
		writeEmpty(w, http.StatusCreated)
	case errors.Is(err, models.ErrNotFound):
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Piece with title \"%s\" not found", title))
	case errors.Is(err, imaging.ErrNotImage):
		writeMsg(w, http.StatusBadRequest, msgInvalidImage)
	default:
		h.Failures.Internal(w, r, err)
	}
}
