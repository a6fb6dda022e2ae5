package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/docmirror/internal/database"
)

// executeRoot runs the root command with args and returns its output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestHistoryCmd tests listing recorded runs.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("no database yet", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("lists runs and pages of a mirror", func(t *testing.T) {
		t.Parallel()

		server := newMirrorServer(t)
		cfg := newTestConfig(t, server)
		if err := runMirror(context.Background(), cfg, &bytes.Buffer{}, discardLogger()); err != nil {
			t.Fatalf("mirror failed: %v", err)
		}

		out, err := executeRoot(t, "history", "--db-dir", cfg.DBDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"| ID", string(database.RunStatusCompleted), server.URL + "/sandbox", "en → zh-tw"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected list to contain %q, got:\n%s", want, out)
			}
		}

		db, err := database.Open(cfg.DBDir, database.Options{})
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		runs, err := db.ListRuns(context.Background(), 1)
		_ = db.Close()
		if err != nil || len(runs) != 1 {
			t.Fatalf("failed to list runs: %v", err)
		}

		out, err = executeRoot(t, "history", "--db-dir", cfg.DBDir, shortID(runs[0].ID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"## Run " + runs[0].ID, "getting-started", "| ok"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected run detail to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		server := newMirrorServer(t)
		cfg := newTestConfig(t, server)
		if err := runMirror(context.Background(), cfg, &bytes.Buffer{}, discardLogger()); err != nil {
			t.Fatalf("mirror failed: %v", err)
		}

		if _, err := executeRoot(t, "history", "--db-dir", cfg.DBDir, "zzzz"); err == nil {
			t.Error("expected error for unknown run")
		}
	})
}

// TestWriteRuns tests the run table.
func TestWriteRuns(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := []database.Run{
		{
			ID:             "0123456789abcdef",
			BaseURL:        "https://docs.deno.com",
			Section:        "sandbox",
			SourceLanguage: "en",
			TargetLanguage: "zh-tw",
			StartedAt:      now.Add(-2 * time.Hour),
			FinishedAt:     now.Add(-2*time.Hour + 90*time.Second),
			Status:         database.RunStatusCompleted,
			Pages:          12,
			Failed:         1,
		},
		{
			ID:        "fedcba",
			StartedAt: now.Add(-time.Minute),
			Status:    database.RunStatusRunning,
		},
	}

	var buf bytes.Buffer
	if err := writeRuns(&buf, runs, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"01234567", "2 hours ago", "https://docs.deno.com/sandbox", "1m30s", "fedcba", "running", "| -"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("expected shortened ID, got:\n%s", out)
	}
}
