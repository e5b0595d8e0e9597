package service

import (
	"context"
	"image"
	"io"

	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/models"
)

// ArtRepository defines the persistence operations needed by the ArtService.
type ArtRepository interface {
	// List returns the pieces matching filter.
	List(ctx context.Context, filter models.ArtFilter) ([]models.ArtPiece, error)
	// Get fetches a single piece by title.
	Get(ctx context.Context, title string) (*models.ArtPiece, error)
	// Create inserts a piece, failing with models.ErrConflict on a duplicate title.
	Create(ctx context.Context, p models.ArtPiece) error
	// Replace overwrites existing pieces atomically.
	Replace(ctx context.Context, pieces ...models.ArtPiece) error
	// Delete removes a piece by title.
	Delete(ctx context.Context, title string) error
}

// ImageStore persists decoded uploads and their derivatives.
type ImageStore interface {
	WriteArt(img image.Image, path string) error
	WritePsalmThumbnail(img image.Image, thumbnailPath string) error
	WritePsalmDemo(img image.Image, demoPath string) error
}

// ArtService implements the art catalog operations.
type ArtService struct {
	repo   ArtRepository
	images ImageStore
}

// NewArtService constructs an ArtService with the provided repository and image store.
func NewArtService(repo ArtRepository, images ImageStore) *ArtService {
	return &ArtService{repo: repo, images: images}
}

// List returns the public view of the pieces matching filter. A filter
// without a collection, or one that matches nothing, yields models.ErrNotFound.
func (s *ArtService) List(ctx context.Context, filter models.ArtFilter) ([]models.PieceView, error) {
	if filter.Collection == "" {
		return nil, models.ErrNotFound
	}
	pieces, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, models.ErrNotFound
	}

	views := make([]models.PieceView, 0, len(pieces))
	for _, p := range pieces {
		views = append(views, p.View())
	}
	return views, nil
}

// Create stores a new piece.
func (s *ArtService) Create(ctx context.Context, p models.ArtPiece) error {
	return s.repo.Create(ctx, p)
}

// Update replaces every piece in pieces, or none of them.
func (s *ArtService) Update(ctx context.Context, pieces []models.ArtPiece) error {
	if len(pieces) == 0 {
		return nil
	}
	return s.repo.Replace(ctx, pieces...)
}

// Delete removes the piece with the given title if present.
func (s *ArtService) Delete(ctx context.Context, title string) error {
	return s.repo.Delete(ctx, title)
}

// Upload decodes r and writes the full, large and thumbnail renditions
// under the piece's path. The piece must already exist.
func (s *ArtService) Upload(ctx context.Context, title string, r io.Reader) error {
	p, err := s.repo.Get(ctx, title)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(r)
	if err != nil {
		return err
	}
	return s.images.WriteArt(img, p.Path)
}
