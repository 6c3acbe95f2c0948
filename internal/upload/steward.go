package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artcritic/internal/models"
)

var (
	// ErrNoFile means the multipart request carried no usable file part.
	ErrNoFile = errors.New("no file provided")
	// ErrTooLarge means the upload exceeds the configured byte cap.
	ErrTooLarge = errors.New("file too large")
	// ErrNotImage means the file content does not sniff as an image.
	ErrNotImage = errors.New("file is not an image")
)

// Steward owns the lifecycle of transient uploaded images. Every Acquire must
// be paired with a Release before the request that acquired the asset
// returns; Release never surfaces an error to the caller.
type Steward struct {
	dir      string
	maxBytes int64
	log      zerolog.Logger
}

func NewSteward(dir string, maxBytes int64, logger zerolog.Logger) (*Steward, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Steward{dir: dir, maxBytes: maxBytes, log: logger}, nil
}

// Dir returns the directory assets are stored under.
func (s *Steward) Dir() string {
	return s.dir
}

// Acquire streams the multipart file to a uniquely named file under the
// steward's directory, sniffing the leading bytes to confirm image content.
// No file is left on disk when an error is returned.
func (s *Steward) Acquire(fh *multipart.FileHeader) (*models.UploadedAsset, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrNoFile
	}
	if fh.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	detected := http.DetectContentType(head)
	if !strings.HasPrefix(detected, "image/") {
		return nil, ErrNotImage
	}

	destPath := filepath.Join(s.dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}

	written, err := io.Copy(dest, io.MultiReader(bytes.NewReader(head), io.LimitReader(src, s.maxBytes+1)))
	closeErr := dest.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn().Err(rmErr).Str("path", destPath).Msg("remove partial upload failed")
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &models.UploadedAsset{
		StoredPath:   destPath,
		DeclaredMime: fh.Header.Get("Content-Type"),
		DetectedMime: detected,
		Size:         written,
	}, nil
}

// Release deletes the asset's backing file. Repeat calls and already-missing
// files are no-ops; a failed delete is logged and never changes the outcome
// of the request that acquired the asset.
func (s *Steward) Release(asset *models.UploadedAsset) {
	if asset == nil || asset.StoredPath == "" {
		return
	}
	if err := os.Remove(asset.StoredPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", asset.StoredPath).Msg("release uploaded asset failed")
	}
}
