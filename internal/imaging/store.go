package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// rendition is one output size. A zero size keeps the native dimensions.
type rendition struct {
	suffix string
	size   int
}

var (
	artRenditions  = []rendition{{"full", 0}, {"large", LargeArt}, {"thumbnail", Thumbnail}}
	demoRenditions = []rendition{{"full", 0}, {"large", LargeDemo}, {"thumbnail", Thumbnail}}
)

// Store writes renditions into a single flat directory. Existing files are
// replaced, so re-uploading is idempotent.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// WriteArt writes path-full.jpg, path-large.jpg and path-thumbnail.jpg.
func (s *Store) WriteArt(img image.Image, path string) error {
	return s.writeRenditions(img, path, artRenditions)
}

// WritePsalmDemo writes the full, large and thumbnail demo renditions.
func (s *Store) WritePsalmDemo(img image.Image, demoPath string) error {
	return s.writeRenditions(img, demoPath, demoRenditions)
}

// WritePsalmThumbnail writes the image unchanged as thumbnailPath.jpg.
func (s *Store) WritePsalmThumbnail(img image.Image, thumbnailPath string) error {
	return s.save(thumbnailPath+".jpg", img)
}

// FileName is the name under which base's rendition with suffix is stored.
func FileName(base, suffix string) string {
	return fmt.Sprintf("%s-%s.jpg", base, suffix)
}

func (s *Store) writeRenditions(img image.Image, base string, rs []rendition) error {
	for _, r := range rs {
		out := img
		if r.size > 0 {
			out = Resize(img, r.size)
		}
		if err := s.save(FileName(base, r.suffix), out); err != nil {
			return err
		}
	}
	return nil
}

// save encodes img to a temporary file and renames it into place.
func (s *Store) save(name string, img image.Image) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}
