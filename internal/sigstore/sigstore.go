// Package sigstore persists signature images on the local filesystem and
// maps stored references to public URLs.
package sigstore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyBlob is returned when a caller submits an empty signature payload.
var ErrEmptyBlob = errors.New("empty signature payload")

// maxBlobSize bounds a single signature image. Canvas exports are tiny PNGs;
// anything past this is not a signature.
const maxBlobSize = 1 << 20

type Store struct {
	dir     string
	baseURL string
}

// New creates the backing directory if needed.
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create signature dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes the blob under a content-addressed name scoped to the owner and
// returns the reference to store alongside the profile or log.
func (s *Store) Save(ctx context.Context, ownerID string, blob []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(blob) == 0 {
		return "", ErrEmptyBlob
	}
	if len(blob) > maxBlobSize {
		return "", fmt.Errorf("signature payload too large: %d bytes", len(blob))
	}
	sum := sha256.Sum256(blob)
	name := fmt.Sprintf("%s-%s.png", ownerID, hex.EncodeToString(sum[:8]))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write signature: %w", err)
	}
	return name, nil
}

// PublicURL maps a stored reference to the URL served by the HTTP layer.
// References that already look absolute are passed through unchanged.
func (s *Store) PublicURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return s.baseURL + "/" + ref
}

// Open returns the file contents for a stored reference.
func (s *Store) Open(ref string) ([]byte, error) {
	clean := filepath.Base(ref)
	return os.ReadFile(filepath.Join(s.dir, clean))
}

// Remove deletes a stored signature. Callers use it to undo a Save whose
// surrounding operation failed, so a missing file is not an error.
func (s *Store) Remove(ref string) error {
	clean := filepath.Base(ref)
	err := os.Remove(filepath.Join(s.dir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DecodeDataURL strips an optional data URL prefix and decodes the base64
// payload. Browser canvases export signatures as data:image/png;base64 URLs.
func DecodeDataURL(input string) ([]byte, error) {
	if input == "" {
		return nil, ErrEmptyBlob
	}
	if idx := strings.Index(input, ";base64,"); idx >= 0 {
		input = input[idx+len(";base64,"):]
	}
	blob, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("decode signature payload: %w", err)
	}
	if len(blob) == 0 {
		return nil, ErrEmptyBlob
	}
	return blob, nil
}
