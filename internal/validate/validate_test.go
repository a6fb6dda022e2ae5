package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/report"
)

var languages = []string{"en", "zh-tw"}

// writeMirror writes files below a new mirror root. Keys are slash paths.
func writeMirror(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

func entry(slug string, assets ...string) model.ManifestEntry {
	job := model.NewPageJob(model.Page{URL: "https://docs.example.com/sandbox/" + slug, Slug: slug}, 1, "en", "zh-tw")
	job.AssetsDownloaded = assets
	return job.Entry()
}

func writeManifest(t *testing.T, root string, entries ...model.ManifestEntry) {
	t.Helper()

	m := model.NewManifest()
	for _, e := range entries {
		m.Add(e)
	}
	if _, err := report.WriteManifestFile(root, m); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func messages(issues []Issue) string {
	var b strings.Builder
	for _, i := range issues {
		b.WriteString(i.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// TestValidate tests validation of complete and broken mirrors.
func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid mirror", func(t *testing.T) {
		t.Parallel()

		root := writeMirror(t, map[string]string{
			"en/index.md":                 "# Sandbox\n\nSee [start](guide/start.md#setup).\n",
			"zh-tw/index.md":              "# 沙盒\n\n參見 [開始](guide/start.md)。\n",
			"en/guide/start.md":           "# Start\n\n[Home](../index.md) ![d](../../assets/sandbox/images/a.png) [site](https://deno.com) [top](#start)\n",
			"zh-tw/guide/start.md":        "# 開始\n\n[首頁](../index.md)\n",
			"assets/sandbox/images/a.png": "PNG",
		})
		writeManifest(t, root, entry("index"), entry("guide/start", "assets/sandbox/images/a.png"))

		result, err := New(root, languages).Validate(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.OK() || len(result.Issues) != 0 {
			t.Errorf("expected no issues, got:\n%s", messages(result.Issues))
		}
		if result.Entries != 2 || result.Documents != 4 {
			t.Errorf("expected 2 entries and 4 documents, got %d and %d", result.Entries, result.Documents)
		}
	})

	t.Run("reports broken links and missing titles", func(t *testing.T) {
		t.Parallel()

		root := writeMirror(t, map[string]string{
			"en/index.md":    "# Sandbox\n\n[gone](missing.md) ![img](../assets/sandbox/images/gone.png)\n",
			"zh-tw/index.md": "## 沒有標題\n",
		})
		writeManifest(t, root, entry("index", "assets/sandbox/images/gone.png"))

		result, err := New(root, languages).Validate(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.OK() {
			t.Fatal("expected errors")
		}

		errs := messages(result.Errors())
		for _, want := range []string{"en/index.md: broken link missing.md", "zh-tw/index.md: missing H1 title"} {
			if !strings.Contains(errs, want) {
				t.Errorf("expected error %q, got:\n%s", want, errs)
			}
		}

		warnings := messages(result.Warnings())
		for _, want := range []string{"missing asset ../assets/sandbox/images/gone.png", "missing asset file assets/sandbox/images/gone.png"} {
			if !strings.Contains(warnings, want) {
				t.Errorf("expected warning %q, got:\n%s", want, warnings)
			}
		}
	})

	t.Run("reports missing documents", func(t *testing.T) {
		t.Parallel()

		root := writeMirror(t, map[string]string{"en/index.md": "# Sandbox\n"})
		writeManifest(t, root, entry("index"))

		result, err := New(root, languages).Validate(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := messages(result.Errors()); !strings.Contains(got, "zh-tw/index.md: missing markdown file") {
			t.Errorf("expected missing file error, got:\n%s", got)
		}
	})

	t.Run("failed pages are warnings", func(t *testing.T) {
		t.Parallel()

		root := writeMirror(t, nil)
		job := model.NewPageJob(model.Page{URL: "https://docs.example.com/sandbox/broken", Slug: "broken"}, 1, "en", "zh-tw")
		writeManifest(t, root, job.FailedEntry(errors.New("article not found")))

		result, err := New(root, languages).Validate(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.OK() || len(result.Warnings()) != 1 {
			t.Errorf("expected a single warning, got:\n%s", messages(result.Issues))
		}
	})
}

// TestValidateManifest tests structural manifest errors.
func TestValidateManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		want     string
	}{
		{name: "missing file", manifest: "", want: "no such file"},
		{name: "not JSON", manifest: "{", want: "failed to parse"},
		{name: "missing slug", manifest: `[{"url":"u","en":"en/a.md","zh_tw":"zh-tw/a.md"}]`, want: "missing required keys: slug"},
		{name: "missing language", manifest: `[{"url":"u","slug":"a","en":"en/a.md"}]`, want: "missing required keys: zh_tw"},
		{
			name:     "duplicate slug",
			manifest: `[{"url":"u1","slug":"a","en":"en/a.md","zh_tw":"zh-tw/a.md"},{"url":"u2","slug":"a","en":"en/a.md","zh_tw":"zh-tw/a.md"}]`,
			want:     `duplicate slug "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files := map[string]string{}
			if tt.manifest != "" {
				files[report.ManifestFileName] = tt.manifest
			}
			root := writeMirror(t, files)

			_, err := New(root, languages).Validate(context.Background())
			if !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("expected ErrInvalidManifest, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to contain %q, got %v", tt.want, err)
			}
		})
	}
}

// TestValidateCanceled tests that validation stops on cancellation.
func TestValidateCanceled(t *testing.T) {
	t.Parallel()

	root := writeMirror(t, map[string]string{"en/index.md": "# A\n", "zh-tw/index.md": "# A\n"})
	writeManifest(t, root, entry("index"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(root, languages).Validate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestResolveLocal tests relative link resolution.
func TestResolveLocal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		docPath     string
		destination string
		want        string
		wantOK      bool
	}{
		{name: "sibling", docPath: "en/index.md", destination: "apps.md", want: "en/apps.md", wantOK: true},
		{name: "fragment stripped", docPath: "en/index.md", destination: "apps.md#run", want: "en/apps.md", wantOK: true},
		{name: "parent", docPath: "en/guide/start.md", destination: "../index.md", want: "en/index.md", wantOK: true},
		{name: "asset", docPath: "en/index.md", destination: "../assets/a.png", want: "assets/a.png", wantOK: true},
		{name: "absolute URL", docPath: "en/index.md", destination: "https://deno.com/x.md"},
		{name: "root relative", docPath: "en/index.md", destination: "/sandbox/apps"},
		{name: "fragment only", docPath: "en/index.md", destination: "#top"},
		{name: "mailto", docPath: "en/index.md", destination: "mailto:a@example.com"},
		{name: "escapes root", docPath: "en/index.md", destination: "../../etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := resolveLocal(tt.docPath, tt.destination)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("resolveLocal(%q, %q) = %q, %v; want %q, %v", tt.docPath, tt.destination, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
