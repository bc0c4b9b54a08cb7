package pubform

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test_content.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestNewStoreRejectsBadTable(t *testing.T) {
	_, err := NewStoreTable(filepath.Join(t.TempDir(), "x.db"), "content; DROP TABLE x")
	if err == nil {
		t.Fatal("expected error for invalid table name")
	}
}

func TestInsertAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := ContentRecord{
		Title:      "Test Post",
		AuthorName: "Alex",
		Department: "Research",
		Category:   "News",
		Body:       "Body text",
		MediaItems: []MediaItem{{Type: "mp3", StoragePath: "audio/ep1.mp3", Title: "ep1.mp3"}},
		IsFeatured: true,
		Tags:       []string{"go", "", "testing"},
	}
	rows, err := s.Insert(ctx, "content", []ContentRecord{rec})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Insert returned %d rows, want 1", len(rows))
	}
	id, _ := rows[0]["content_id"].(string)
	if id == "" {
		t.Fatal("content_id should be generated")
	}
	if rows[0]["title"] != "Test Post" {
		t.Errorf("row title = %v", rows[0]["title"])
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ContentID != id {
		t.Errorf("ContentID = %q, want %q", got.ContentID, id)
	}
	if !reflect.DeepEqual(got.ContentRecord, rec) {
		t.Errorf("record = %+v, want %+v", got.ContentRecord, rec)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestInsertEmptyLists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, "content", []ContentRecord{{Title: "Bare"}})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := s.Get(ctx, rows[0]["content_id"].(string))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MediaItems == nil || len(got.MediaItems) != 0 {
		t.Errorf("MediaItems = %#v, want empty list", got.MediaItems)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty list", got.Tags)
	}
	if got.IsFeatured {
		t.Error("IsFeatured should be false")
	}
}

func TestInsertGeneratesDistinctIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rows, err := s.Insert(ctx, "content", []ContentRecord{{Title: "same"}})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		id := rows[0]["content_id"].(string)
		if seen[id] {
			t.Fatalf("duplicate content_id %q", id)
		}
		seen[id] = true
	}
	if n, _ := s.Count(ctx); n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}

func TestInsertUnknownTable(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Insert(context.Background(), "posts", []ContentRecord{{Title: "x"}})
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestInsertCancelledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Insert(ctx, "content", []ContentRecord{{Title: "x"}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Get(context.Background(), "nonexistent")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetRejectsBadTimestamp(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, "content", []ContentRecord{{Title: "x"}})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	id := rows[0]["content_id"].(string)
	if _, err := s.db.ExecContext(ctx, `UPDATE content SET created_at = 'yesterday' WHERE content_id = ?`, id); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := s.Get(ctx, id); err == nil {
		t.Fatal("expected error for unparseable created_at")
	}
}

func TestControllerWithStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := newTestController(s, WithMediaPolicy(InlineRecord{}))
	c.Update(func(f *FormState) {
		*f = FormState{
			Title:      "Inline",
			AuthorName: "Kim",
			Department: "Ops",
			Category:   "Events",
			Body:       "b",
			Tags:       "a,b",
			Pending:    MediaItem{Type: "wav", StoragePath: "x/y.wav", Title: "Y"},
		}
	})
	out, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	got, err := s.Get(ctx, out.ContentID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got.MediaItems, []MediaItem{{Type: "wav", StoragePath: "x/y.wav", Title: "Y"}}) {
		t.Errorf("MediaItems = %+v", got.MediaItems)
	}
	if !reflect.DeepEqual(got.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %q", got.Tags)
	}
}
