package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store is the external media collaborator. Listings keep only the paths it
// returns.
type Store interface {
	// Save stores the uploaded image and returns the image and thumbnail
	// paths to record on the listing.
	Save(ctx context.Context, name string, r io.Reader) (imagePath, thumbPath string, err error)
	Delete(ctx context.Context, paths ...string) error
}

// FSStore writes images under a local directory. Thumbnailing is out of
// scope; the thumbnail path points at the original.
type FSStore struct{ Dir string }

func (s *FSStore) Save(ctx context.Context, name string, r io.Reader) (string, string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("image dir: %w", err)
	}
	ext := filepath.Ext(name)
	path := filepath.Join(s.Dir, uuid.NewString()+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("image create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("image write: %w", err)
	}
	return path, path, nil
}

func (s *FSStore) Delete(ctx context.Context, paths ...string) error {
	var firstErr error
	seen := map[string]bool{}
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Noop satisfies Store where media handling is irrelevant (tests).
type Noop struct{}

func (Noop) Save(ctx context.Context, name string, r io.Reader) (string, string, error) {
	return "", "", nil
}
func (Noop) Delete(ctx context.Context, paths ...string) error { return nil }
