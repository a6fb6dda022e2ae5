package report

import (
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs a run summary in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcome(md, summary)
	w.writePages(md, summary)
	w.writeFailures(md, summary)
	w.writeSkipped(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	m := s.manifest()

	md.H1("docmirror Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", orDash(s.RunID)},
			{"Site", "`" + s.BaseURL + "`"},
			{"Section", "`" + s.Section + "`"},
			{"Languages", s.SourceLanguage + " → " + s.TargetLanguage},
			{"Output", "`" + s.OutDir + "`"},
			{"Started", formatTime(s.StartedAt)},
			{"Duration", s.Duration().Round(time.Millisecond).String()},
			{"Pages Discovered", humanize.Comma(int64(s.Discovered))},
			{"Pages Processed", humanize.Comma(int64(m.Len()))},
			{"Pages Skipped", humanize.Comma(int64(len(s.Skipped)))},
			{"Assets Mirrored", humanize.Comma(int64(len(m.Assets())))},
			{"Asset Size", humanize.Bytes(uint64(max(s.AssetBytes, 0)))},
			{"Status", statusText(s)},
		},
	})
	md.PlainText("")
}

// statusText returns the one-line outcome of the run.
func statusText(s *Summary) string {
	if s.Err != nil {
		return "❌ Aborted - " + s.Err.Error()
	}
	if n := len(s.manifest().Failed()); n > 0 {
		return "⚠️ Completed with " + strconv.Itoa(n) + " failed page(s)"
	}
	return "✅ Complete"
}

// countChanges tallies the change class of every successful page.
func countChanges(s *Summary) map[Change]int {
	counts := make(map[Change]int)
	for _, e := range s.manifest().Entries {
		if e.Status.Failed() {
			continue
		}
		if c, ok := s.Changes[e.URL]; ok {
			counts[c]++
		}
	}
	return counts
}

// writeOutcome writes the page distribution chart and the run alert.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, s *Summary) {
	m := s.manifest()
	failed := len(m.Failed())
	counts := countChanges(s)

	md.H2("Outcome")
	md.PlainText("")

	if m.Len() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Pages"),
			piechart.WithShowData(true),
		)
		for _, c := range []Change{ChangeNew, ChangeModified, ChangeUnchanged} {
			if counts[c] > 0 {
				chart.LabelAndIntValue(string(c), uint64(counts[c]))
			}
		}
		if failed > 0 {
			chart.LabelAndIntValue(string(model.PageStatusFailed), uint64(failed))
		}

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.Err != nil:
		md.Cautionf("The run was aborted after %d page(s): %s", m.Len(), s.Err.Error())
	case failed > 0:
		md.Warningf("%d of %d page(s) failed and were not mirrored.", failed, m.Len())
	case counts[ChangeModified]+counts[ChangeNew] > 0:
		md.Importantf("%d page(s) are new or changed since the previous run.", counts[ChangeModified]+counts[ChangeNew])
	case m.Len() == 0:
		md.Note("No pages were processed.")
	default:
		md.Tip("All pages were mirrored and translated.")
	}
	md.PlainText("")
}

// writePages writes one table row per manifest entry.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, s *Summary) {
	m := s.manifest()

	md.H2("Pages")
	md.PlainText("")

	if m.Len() == 0 {
		md.PlainText("No pages processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, m.Len())
	for _, e := range m.Entries {
		change := "-"
		if c, ok := s.Changes[e.URL]; ok && !e.Status.Failed() {
			change = string(c)
		}
		rows = append(rows, []string{
			"`" + e.Slug + "`",
			e.Status.String(),
			change,
			strconv.Itoa(len(e.AssetsDownloaded)),
			orDash(e.Path(s.SourceLanguage)),
			orDash(e.Path(s.TargetLanguage)),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Slug", "Status", "Change", "Assets", s.SourceLanguage, s.TargetLanguage},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists the errors of failed pages.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *Summary) {
	failed := s.manifest().Failed()
	if len(failed) == 0 {
		return
	}

	md.H2("Failed Pages")
	md.PlainText("")
	for _, e := range failed {
		md.Details(e.Slug, e.URL+"\n\n"+truncateString(e.Error, 500))
	}
	md.PlainText("")
}

// writeSkipped lists discovered URLs that share a slug with an earlier URL.
func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, s *Summary) {
	if len(s.Skipped) == 0 {
		return
	}

	md.H2("Skipped URLs")
	md.PlainText("")
	md.PlainTextf("%d discovered URL(s) map to a slug that an earlier URL already produced.", len(s.Skipped))
	md.PlainText("")

	rows := make([][]string, 0, len(s.Skipped))
	for _, p := range s.Skipped {
		rows = append(rows, []string{p.URL, "`" + p.Slug + "`", p.DuplicateOf})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Slug", "Duplicate Of"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docmirror](https://github.com/nao1215/docmirror)*")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
