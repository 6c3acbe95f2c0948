package survey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"artcritic/internal/models"
)

// SQLStore appends submissions to the submissions table. It is selected over
// the CSV store when a database is configured.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Append(ctx context.Context, sub models.FormSubmission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (kind, role, interests, feedback, name, email, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sub.Kind),
		sub.Role,
		strings.Join(sub.Interests, ", "),
		sub.Feedback,
		sub.Name,
		sub.Email,
		sub.Message,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s submission: %w", sub.Kind, err)
	}
	return nil
}
