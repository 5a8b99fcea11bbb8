// Package staging manages the transient image artifact the OCR provider
// reads from. An artifact is request-local: it is created before the
// detection call and removed best-effort once the request settles.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stager writes decoded image bytes into the staging directory.
type Stager struct {
	dir    string
	logger *zap.Logger
}

// NewStager creates a stager rooted at dir.
func NewStager(dir string, logger *zap.Logger) *Stager {
	return &Stager{dir: dir, logger: logger}
}

// Stage writes the image bytes under a fresh random name and returns the
// artifact path. The path doubles as the persisted image_url.
func (s *Stager) Stage(imageBytes []byte, format string) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s.%s", uuid.NewString(), format))
	if err := os.WriteFile(path, imageBytes, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage image: %w", err)
	}
	return path, nil
}

// Remove deletes a staged artifact. Removal is best-effort: failures are
// logged and never surfaced to the request.
func (s *Stager) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove staged image", zap.String("path", path), zap.Error(err))
	}
}
