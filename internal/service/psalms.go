package service

import (
	"context"
	"errors"
	"io"

	"github.com/goccy/go-json"

	"github.com/cabellfineart/gallery-api/internal/imaging"
	"github.com/cabellfineart/gallery-api/internal/models"
)

// ImageKind selects which psalm image an upload replaces.
type ImageKind string

const (
	// ImageThumbnail is the single small image shown in the psalm index.
	ImageThumbnail ImageKind = "thumbnail"
	// ImageDemo is the demonstration image, stored in three sizes.
	ImageDemo ImageKind = "demo"
)

// ErrImageKind is returned for an imageType other than thumbnail or demo.
var ErrImageKind = errors.New("Please enter a valid image type")

// ParseImageKind validates the imageType form value.
func ParseImageKind(s string) (ImageKind, error) {
	switch k := ImageKind(s); k {
	case ImageThumbnail, ImageDemo:
		return k, nil
	}
	return "", ErrImageKind
}

// PsalmsRepository defines the persistence operations needed by the PsalmsService.
type PsalmsRepository interface {
	List(ctx context.Context) ([]models.Psalm, error)
	Get(ctx context.Context, number int64) (*models.Psalm, error)
	Create(ctx context.Context, p models.Psalm) error
	Replace(ctx context.Context, psalms ...models.Psalm) error
	Delete(ctx context.Context, number int64) error
	// ListMetadata returns the opaque display metadata documents.
	ListMetadata(ctx context.Context) ([]json.RawMessage, error)
}

// PsalmsService implements the psalms catalog operations.
type PsalmsService struct {
	repo   PsalmsRepository
	images ImageStore
}

// NewPsalmsService constructs a PsalmsService with the provided repository and image store.
func NewPsalmsService(repo PsalmsRepository, images ImageStore) *PsalmsService {
	return &PsalmsService{repo: repo, images: images}
}

// List returns every psalm ordered by number.
func (s *PsalmsService) List(ctx context.Context) ([]models.Psalm, error) {
	return s.repo.List(ctx)
}

// Metadata returns the psalms display metadata.
func (s *PsalmsService) Metadata(ctx context.Context) ([]json.RawMessage, error) {
	return s.repo.ListMetadata(ctx)
}

// Create stores a new psalm.
func (s *PsalmsService) Create(ctx context.Context, p models.Psalm) error {
	return s.repo.Create(ctx, p)
}

// Update replaces every psalm in psalms, or none of them.
func (s *PsalmsService) Update(ctx context.Context, psalms []models.Psalm) error {
	if len(psalms) == 0 {
		return nil
	}
	return s.repo.Replace(ctx, psalms...)
}

// Delete removes the psalm with the given number if present.
func (s *PsalmsService) Delete(ctx context.Context, number int64) error {
	return s.repo.Delete(ctx, number)
}

// Upload decodes r and stores it as the psalm's thumbnail or demo image.
func (s *PsalmsService) Upload(ctx context.Context, number int64, kind ImageKind, r io.Reader) error {
	p, err := s.repo.Get(ctx, number)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(r)
	if err != nil {
		return err
	}
	switch kind {
	case ImageDemo:
		return s.images.WritePsalmDemo(img, p.DemoPath)
	case ImageThumbnail:
		return s.images.WritePsalmThumbnail(img, p.ThumbnailPath)
	}
	return ErrImageKind
}
