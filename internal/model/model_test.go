package model

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

// TestContentHash tests the content hash.
func TestContentHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 of the content", func(t *testing.T) {
		t.Parallel()

		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if got := ContentHash("Hello, World!"); got != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})

	t.Run("empty content produces empty hash", func(t *testing.T) {
		t.Parallel()

		if got := ContentHash(""); got != "" {
			t.Errorf("expected empty hash, got %q", got)
		}
	})
}

// TestPageJobEntry tests manifest entries built from jobs.
func TestPageJobEntry(t *testing.T) {
	t.Parallel()

	job := NewPageJob(Page{URL: "https://docs.example.com/sandbox/getting-started", Slug: "getting-started"}, 2, "en", "zh-tw")
	job.AssetsDownloaded = []string{"assets/sandbox/images/a.png"}

	t.Run("document paths follow the slug", func(t *testing.T) {
		t.Parallel()

		if job.Source.Path != "en/getting-started.md" {
			t.Errorf("unexpected source path %q", job.Source.Path)
		}
		if job.Target.Path != "zh-tw/getting-started.md" {
			t.Errorf("unexpected target path %q", job.Target.Path)
		}
	})

	t.Run("completed entry", func(t *testing.T) {
		t.Parallel()

		e := job.Entry()
		if e.Status.Failed() || e.Error != "" {
			t.Errorf("expected ok entry, got %+v", e)
		}
		if e.Path("zh-tw") != "zh-tw/getting-started.md" || e.Path("fr") != "" {
			t.Errorf("unexpected paths %+v", e.Documents)
		}
	})

	t.Run("failed entry", func(t *testing.T) {
		t.Parallel()

		e := job.FailedEntry(errors.New("cannot find main article"))
		if !e.Status.Failed() {
			t.Error("expected failed status")
		}
		if e.Error != "cannot find main article" {
			t.Errorf("unexpected error %q", e.Error)
		}
	})

	t.Run("nested slug", func(t *testing.T) {
		t.Parallel()

		j := NewPageJob(Page{Slug: "reference/cli"}, 1, "en", "ja")
		if j.Target.Path != "ja/reference/cli.md" {
			t.Errorf("unexpected target path %q", j.Target.Path)
		}
	})
}

// TestManifestEntryJSON tests the manifest wire format.
func TestManifestEntryJSON(t *testing.T) {
	t.Parallel()

	t.Run("keys are ordered and language keys use underscores", func(t *testing.T) {
		t.Parallel()

		e := ManifestEntry{
			URL:  "https://docs.example.com/sandbox/?a=1&b=<2>",
			Slug: "index",
			Documents: []Document{
				{Language: "en", Path: "en/index.md"},
				{Language: "zh-tw", Path: "zh-tw/index.md"},
			},
			Status: PageStatusOK,
		}

		data, err := marshalNoEscape(e)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"url":"https://docs.example.com/sandbox/?a=1&b=<2>","slug":"index","en":"en/index.md","zh_tw":"zh-tw/index.md","assets_downloaded":[]}`
		if string(data) != want {
			t.Errorf("expected\n%s\ngot\n%s", want, data)
		}
	})

	t.Run("failed entry carries status and error", func(t *testing.T) {
		t.Parallel()

		e := ManifestEntry{URL: "u", Slug: "s", Status: PageStatusFailed, Error: "boom"}
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"url":"u","slug":"s","assets_downloaded":[],"status":"failed","error":"boom"}`
		if string(data) != want {
			t.Errorf("expected\n%s\ngot\n%s", want, data)
		}
	})

	t.Run("reads language keys back", func(t *testing.T) {
		t.Parallel()

		var e ManifestEntry
		data := `{"zh_tw":"zh-tw/a.md","url":"u","en":"en/a.md","slug":"a","assets_downloaded":["assets/x.png"]}`
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if e.URL != "u" || e.Slug != "a" {
			t.Errorf("unexpected entry %+v", e)
		}
		want := []Document{{Language: "en", Path: "en/a.md"}, {Language: "zh-tw", Path: "zh-tw/a.md"}}
		if !slices.Equal(e.Documents, want) {
			t.Errorf("expected %v, got %v", want, e.Documents)
		}
		if !slices.Equal(e.AssetsDownloaded, []string{"assets/x.png"}) {
			t.Errorf("unexpected assets %v", e.AssetsDownloaded)
		}
	})

	t.Run("rejects non-string language values", func(t *testing.T) {
		t.Parallel()

		var e ManifestEntry
		if err := json.Unmarshal([]byte(`{"url":"u","en":5}`), &e); err == nil {
			t.Error("expected error for numeric path")
		}
	})
}

// TestManifest tests manifest aggregation.
func TestManifest(t *testing.T) {
	t.Parallel()

	t.Run("empty manifest is an empty array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewManifest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected [], got %s", data)
		}
	})

	t.Run("aggregates failures and assets", func(t *testing.T) {
		t.Parallel()

		m := NewManifest()
		m.Add(ManifestEntry{URL: "a", AssetsDownloaded: []string{"assets/b.png", "assets/a.png"}})
		m.Add(ManifestEntry{URL: "b", Status: PageStatusFailed})
		m.Add(ManifestEntry{URL: "c", AssetsDownloaded: []string{"assets/a.png"}})

		if m.Len() != 3 {
			t.Errorf("expected 3 entries, got %d", m.Len())
		}
		if failed := m.Failed(); len(failed) != 1 || failed[0].URL != "b" {
			t.Errorf("unexpected failed entries %v", failed)
		}
		if assets := m.Assets(); !slices.Equal(assets, []string{"assets/a.png", "assets/b.png"}) {
			t.Errorf("unexpected assets %v", assets)
		}
	})

	t.Run("round trip keeps order", func(t *testing.T) {
		t.Parallel()

		m := NewManifest()
		m.Add(ManifestEntry{URL: "z", Slug: "z"})
		m.Add(ManifestEntry{URL: "a", Slug: "a"})

		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got Manifest
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Len() != 2 || got.Entries[0].URL != "z" || got.Entries[1].URL != "a" {
			t.Errorf("unexpected entries %+v", got.Entries)
		}
	})
}

// TestPageStatus tests status helpers.
func TestPageStatus(t *testing.T) {
	t.Parallel()

	if PageStatus("").String() != "ok" {
		t.Errorf("expected zero status to print as ok")
	}
	if !PageStatusFailed.Failed() || PageStatusOK.Failed() {
		t.Error("unexpected Failed result")
	}
}
