package survey

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"artcritic/internal/models"
)

// Store appends form submission records. Records are append-only: nothing in
// this service updates or deletes them, and within one process appends happen
// in arrival order.
type Store interface {
	Append(ctx context.Context, sub models.FormSubmission) error
}

var csvHeaders = map[models.SubmissionKind][]string{
	models.KindSurvey:      {"created_at", "role", "interests", "feedback"},
	models.KindPreregister: {"created_at", "email"},
	models.KindContact:     {"created_at", "name", "email", "message"},
}

// CSVStore keeps one CSV file per submission kind under a data directory.
// encoding/csv quoting handles embedded quotes and commas, so the stored rows
// round-trip through any spreadsheet tool.
type CSVStore struct {
	dir string
	mu  sync.Mutex
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) Append(_ context.Context, sub models.FormSubmission) error {
	header, ok := csvHeaders[sub.Kind]
	if !ok {
		return fmt.Errorf("unknown submission kind: %s", sub.Kind)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, string(sub.Kind)+".csv")
	file, isNew, err := openAppend(path)
	if err != nil {
		return fmt.Errorf("open %s log: %w", sub.Kind, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if isNew {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write %s header: %w", sub.Kind, err)
		}
	}
	if err := w.Write(csvRow(sub)); err != nil {
		return fmt.Errorf("write %s row: %w", sub.Kind, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s log: %w", sub.Kind, err)
	}
	return nil
}

func openAppend(path string) (*os.File, bool, error) {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, err
	}
	return file, isNew, nil
}

func csvRow(sub models.FormSubmission) []string {
	ts := sub.CreatedAt.Format(time.RFC3339)
	switch sub.Kind {
	case models.KindPreregister:
		return []string{ts, sub.Email}
	case models.KindContact:
		return []string{ts, sub.Name, sub.Email, sub.Message}
	default:
		return []string{ts, sub.Role, strings.Join(sub.Interests, ", "), sub.Feedback}
	}
}
