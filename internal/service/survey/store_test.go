package survey

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"artcritic/internal/models"
	"artcritic/internal/storage"
)

func TestCSVStoreQuotesEmbeddedQuotes(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	sub := models.FormSubmission{
		Kind:      models.KindSurvey,
		Role:      "student",
		Interests: []string{"drawing", "painting"},
		Feedback:  `He said "hi"`,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Append(context.Background(), sub); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "survey.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"He said ""hi"""`) {
		t.Fatalf("expected csv-escaped quotes, got:\n%s", content)
	}
	if !strings.Contains(content, `"drawing, painting"`) {
		t.Fatalf("expected joined interests, got:\n%s", content)
	}
}

func TestCSVStoreHeaderOnceAndAppendOnly(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	sub := models.FormSubmission{
		Kind:     models.KindSurvey,
		Role:     "hobbyist",
		Feedback: "useful",
	}
	for i := 0; i < 2; i++ {
		if err := store.Append(context.Background(), sub); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "survey.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "created_at,role,interests,feedback" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	// Identical submissions stay distinct rows.
	if lines[1] == lines[0] || lines[2] == lines[0] {
		t.Fatalf("header repeated in data rows")
	}
}

func TestCSVStoreSeparatesKinds(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	subs := []models.FormSubmission{
		{Kind: models.KindPreregister, Email: "a@example.com"},
		{Kind: models.KindContact, Name: "Ada", Email: "ada@example.com", Message: "hi"},
	}
	for _, sub := range subs {
		if err := store.Append(ctx, sub); err != nil {
			t.Fatalf("append %s: %v", sub.Kind, err)
		}
	}
	for _, name := range []string{"preregister.csv", "contact.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCSVStoreRejectsUnknownKind(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Append(context.Background(), models.FormSubmission{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestSQLStoreAppends(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := NewSQLStore(db)
	sub := models.FormSubmission{
		Kind:      models.KindSurvey,
		Role:      "student",
		Interests: []string{"drawing"},
		Feedback:  "good",
	}
	ctx := context.Background()
	if err := store.Append(ctx, sub); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, sub); err != nil {
		t.Fatalf("append twice: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM submissions WHERE kind = ?`, "survey").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	var feedback string
	if err := db.QueryRow(`SELECT feedback FROM submissions LIMIT 1`).Scan(&feedback); err != nil {
		t.Fatalf("read row: %v", err)
	}
	if feedback != "good" {
		t.Fatalf("unexpected feedback: %q", feedback)
	}
}
