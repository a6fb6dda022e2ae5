package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a temporary database with a controllable clock.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return db
}

func testRun() Run {
	return Run{
		BaseURL:        "https://docs.example.com",
		Section:        "sandbox",
		SourceLanguage: "en",
		TargetLanguage: "zh-tw",
		OutDir:         "mirror",
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
		if _, err := os.Stat(db.Path()); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
	})

	t.Run("missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := db.StartRun(context.Background(), testRun()); err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run, got %d", len(runs))
		}
	})
}

// TestRunLifecycle tests starting, recording and finishing a run.
func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	run, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if len(run.ID) != 36 || run.Status != RunStatusRunning || run.StartedAt.IsZero() {
		t.Fatalf("unexpected run %+v", run)
	}

	pages := []PageRecord{
		{URL: "https://docs.example.com/sandbox/", Slug: "index", Status: "ok", ContentHash: "h1", Assets: 2},
		{URL: "https://docs.example.com/sandbox/broken", Slug: "broken", Status: "failed", Error: "article not found"},
	}
	for _, p := range pages {
		if err := db.RecordPage(ctx, run.ID, p); err != nil {
			t.Fatalf("failed to record page: %v", err)
		}
	}

	if err := db.FinishRun(ctx, run.ID, RunStatusCompleted, nil); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	got, err := db.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != RunStatusCompleted || got.Pages != 2 || got.Failed != 1 {
		t.Errorf("unexpected finished run %+v", got)
	}
	if !got.FinishedAt.After(got.StartedAt) {
		t.Errorf("expected finish after start, got %v and %v", got.StartedAt, got.FinishedAt)
	}
	if got.BaseURL != "https://docs.example.com" || got.TargetLanguage != "zh-tw" {
		t.Errorf("unexpected run fields %+v", got)
	}

	recorded, err := db.Pages(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list pages: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(recorded))
	}
	if recorded[0].Slug != "index" || recorded[0].Assets != 2 || recorded[0].ContentHash != "h1" {
		t.Errorf("unexpected first page %+v", recorded[0])
	}
	if recorded[1].Error != "article not found" || recorded[1].RecordedAt.IsZero() {
		t.Errorf("unexpected second page %+v", recorded[1])
	}
}

// TestRecordPageUpsert tests that re-recording a URL keeps one row.
func TestRecordPageUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	run, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	page := PageRecord{URL: "https://docs.example.com/sandbox/", Slug: "index", Status: "failed"}
	if err := db.RecordPage(ctx, run.ID, page); err != nil {
		t.Fatalf("failed to record page: %v", err)
	}
	page.Status = "ok"
	page.ContentHash = "h2"
	if err := db.RecordPage(ctx, run.ID, page); err != nil {
		t.Fatalf("failed to record page: %v", err)
	}

	pages, err := db.Pages(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list pages: %v", err)
	}
	if len(pages) != 1 || pages[0].Status != "ok" || pages[0].ContentHash != "h2" {
		t.Errorf("unexpected pages %+v", pages)
	}
}

// TestFinishRun tests finishing runs.
func TestFinishRun(t *testing.T) {
	t.Parallel()

	t.Run("stores the error", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := setupTestDB(t)

		run, err := db.StartRun(ctx, testRun())
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		if err := db.FinishRun(ctx, run.ID, RunStatusFailed, errors.New("sitemap unavailable")); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := db.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != RunStatusFailed || got.Error != "sitemap unavailable" {
			t.Errorf("unexpected run %+v", got)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		err := db.FinishRun(context.Background(), "nope", RunStatusCompleted, nil)
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

// TestPreviousHashes tests change detection lookups.
func TestPreviousHashes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	record := func(run *Run, url, status, hash string) {
		t.Helper()
		if err := db.RecordPage(ctx, run.ID, PageRecord{URL: url, Slug: "s", Status: status, ContentHash: hash}); err != nil {
			t.Fatalf("failed to record page: %v", err)
		}
	}

	first, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	record(first, "https://docs.example.com/sandbox/a", "ok", "a1")
	record(first, "https://docs.example.com/sandbox/b", "ok", "b1")

	second, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	record(second, "https://docs.example.com/sandbox/a", "ok", "a2")
	record(second, "https://docs.example.com/sandbox/b", "failed", "")

	other := testRun()
	other.Section = "runtime"
	otherRun, err := db.StartRun(ctx, other)
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	record(otherRun, "https://docs.example.com/runtime/c", "ok", "c1")

	current, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	record(current, "https://docs.example.com/sandbox/a", "ok", "a3")

	hashes, err := db.PreviousHashes(ctx, "https://docs.example.com", "sandbox", current.ID)
	if err != nil {
		t.Fatalf("failed to query hashes: %v", err)
	}

	want := map[string]string{
		"https://docs.example.com/sandbox/a": "a2",
		"https://docs.example.com/sandbox/b": "b1",
	}
	if len(hashes) != len(want) {
		t.Fatalf("expected %v, got %v", want, hashes)
	}
	for u, h := range want {
		if hashes[u] != h {
			t.Errorf("expected %s for %s, got %s", h, u, hashes[u])
		}
	}
}

// TestListRuns tests run listing order and limits.
func TestListRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	var ids []string
	for range 3 {
		run, err := db.StartRun(ctx, testRun())
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("expected newest first, got %+v", runs)
	}

	limited, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs, got %d", len(limited))
	}
}

// TestGetRun tests run lookup by ID and prefix.
func TestGetRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	run, err := db.StartRun(ctx, testRun())
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "full ID", id: run.ID},
		{name: "prefix", id: run.ID[:8]},
		{name: "unknown", id: "ffffffff-ffff", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.GetRun(ctx, tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrRunNotFound) {
					t.Errorf("expected ErrRunNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != run.ID {
				t.Errorf("expected %s, got %s", run.ID, got.ID)
			}
		})
	}
}

// TestParseTimestamp tests timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 12, 0, 1, 500, time.UTC)
	if got := parseTimestamp(want.Format(timeFormat)); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := parseTimestamp(""); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
