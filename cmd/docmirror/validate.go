package main

import (
	"fmt"

	"github.com/nao1215/docmirror/internal/config"
	"github.com/nao1215/docmirror/internal/validate"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a mirror for missing files and broken links",
		Long: `Validate reads manifest.json of a mirror and checks that:

- every entry has a URL, a slug and a document per language
- no slug appears twice
- every markdown file exists and has an H1 title
- every relative link to another markdown file resolves

Missing asset files are reported as warnings. The command fails when
any error is found.

Examples:
  # Validate the mirror in the current directory
  docmirror validate

  # Validate a mirror written with -o mirror
  docmirror validate -o mirror`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	cmd.Flags().StringP("out", "o", config.DefaultOutDir, "Mirror directory to validate")
	cmd.Flags().String("source-lang", config.DefaultSourceLanguage, "Language of the site (BCP 47)")
	cmd.Flags().String("target-lang", config.DefaultTargetLanguage, "Language of the translation (BCP 47)")

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stringFlags := map[string]*string{
		"out":         &cfg.OutDir,
		"source-lang": &cfg.SourceLanguage,
		"target-lang": &cfg.TargetLanguage,
	}
	for name, dst := range stringFlags {
		if err := stringFlag(cmd, name, dst); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	src, tgt := cfg.Languages()

	v := validate.New(cfg.OutDir, []string{config.LanguageDir(src), config.LanguageDir(tgt)}, validate.WithLogger(logger))
	result, err := v.Validate(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, issue := range result.Issues {
		fmt.Fprintln(out, issue.String())
	}

	errs, warnings := len(result.Errors()), len(result.Warnings())
	fmt.Fprintf(out, "Checked %d entries and %d documents: %d error(s), %d warning(s)\n",
		result.Entries, result.Documents, errs, warnings)

	if !result.OK() {
		return fmt.Errorf("mirror validation failed with %d error(s)", errs)
	}
	return nil
}
