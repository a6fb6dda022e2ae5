package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/docmirror/internal/config"
	"github.com/nao1215/docmirror/internal/database"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// shortIDLen is the number of run ID characters shown in listings.
const shortIDLen = 8

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded mirror runs",
		Long: `History lists the mirror runs recorded in the history database, newest
first. With a run ID (or a unique prefix of one) it shows the pages of
that run.

The database lives in the XDG data directory, e.g.
~/.local/share/docmirror/docmirror.db.

Examples:
  # List the last 20 runs
  docmirror history

  # List every run
  docmirror history -n 0

  # Show the pages of one run
  docmirror history 3f2a9c1e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	setupLogger(getVerboseFlag(cmd))

	out := cmd.OutOrStdout()
	db, err := database.Open(dbDir, database.Options{})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		run, err := db.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		pages, err := db.Pages(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		return writeRunPages(out, run, pages)
	}

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	return writeRuns(out, runs, time.Now())
}

// writeRuns prints the run list as a markdown table.
func writeRuns(w io.Writer, runs []database.Run, now time.Time) error {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.BaseURL + "/" + r.Section,
			r.SourceLanguage + " → " + r.TargetLanguage,
			string(r.Status),
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Failed),
			runDuration(r),
		})
	}

	return markdown.NewMarkdown(w).
		Table(markdown.TableSet{
			Header: []string{"ID", "Started", "Section", "Languages", "Status", "Pages", "Failed", "Duration"},
			Rows:   rows,
		}).
		Build()
}

// writeRunPages prints one run and its pages.
func writeRunPages(w io.Writer, run *database.Run, pages []database.PageRecord) error {
	md := markdown.NewMarkdown(w)
	md.H2("Run " + run.ID)
	md.PlainTextf("%s/%s, %s → %s, %s, started %s",
		run.BaseURL, run.Section, run.SourceLanguage, run.TargetLanguage,
		run.Status, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	md.PlainText("")
	if run.Error != "" {
		md.Cautionf("%s", run.Error)
		md.PlainText("")
	}

	if len(pages) == 0 {
		md.PlainText("No pages recorded.")
		return md.Build()
	}

	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		detail := p.Error
		if detail == "" && len(p.ContentHash) >= shortIDLen {
			detail = p.ContentHash[:shortIDLen]
		}
		rows = append(rows, []string{p.Slug, p.Status, strconv.Itoa(p.Assets), detail})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Slug", "Status", "Assets", "Hash / Error"},
		Rows:   rows,
	})
	return md.Build()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func runDuration(r database.Run) string {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}
