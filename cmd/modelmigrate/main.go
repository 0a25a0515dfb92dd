package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/tordrt/modelmigrate"
	"github.com/tordrt/modelmigrate/internal/config"
	"github.com/tordrt/modelmigrate/internal/formatter"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks command line mistakes caught before any work starts.
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath    string
	projectDir    string
	rootNamespace string
	owner         string
	modelPath     string
	language      string
	historyURLs   []string
	historyTable  string
	format        string
	outputDir     string
	verbose       bool
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modelmigrate",
		Short: "Scaffold schema migrations from a data model",
		Long: `modelmigrate compares the current data model with the snapshot recorded by the
newest migration and scaffolds the migration that moves one to the other.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(c.stdout)
	rootCmd.SetErr(c.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Config file (default: "+config.FileName+" in the working directory)")
	pf.StringVarP(&c.projectDir, "project-dir", "p", "", "Project directory holding the migrations (default: .)")
	pf.StringVarP(&c.rootNamespace, "root-namespace", "n", "", "Root namespace of the project")
	pf.StringVar(&c.owner, "owner", "", "Type the model belongs to (default: App)")
	pf.StringVarP(&c.modelPath, "model", "m", "", "Current model file, relative to the project directory (default: model.yaml)")
	pf.StringVarP(&c.language, "language", "l", "", "Artifact language: yaml or go (default: yaml)")
	pf.StringArrayVar(&c.historyURLs, "history-url", nil, "Database to check for applied migrations (repeatable)")
	pf.StringVar(&c.historyTable, "history-table", "", "Table holding applied migration ids (default: __MigrationHistory)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output")

	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a migration for the pending model changes",
		Args:  exactArgs(1),
		RunE:  c.runAdd,
	}

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the newest migration and revert the snapshot",
		Args:  exactArgs(0),
		RunE:  c.runRemove,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List migrations and whether they have been applied",
		Args:  exactArgs(0),
		RunE:  c.runList,
	}
	listCmd.Flags().StringVarP(&c.format, "format", "f", formatter.FormatText, "Output format: text or markdown")

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the operations the next migration would contain",
		Args:  exactArgs(0),
		RunE:  c.runDiff,
	}
	diffCmd.Flags().StringVarP(&c.format, "format", "f", formatter.FormatText, "Output format: text or markdown")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the model recorded by the newest migration",
		Args:  exactArgs(0),
		RunE:  c.runSnapshot,
	}
	snapshotCmd.Flags().StringVarP(&c.format, "format", "f", formatter.FormatText, "Output format: text or markdown")
	snapshotCmd.Flags().StringVarP(&c.outputDir, "output-dir", "d", "", "Write an overview and one file per entity to this directory")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			v := modelmigrate.Version
			v.Build = semver.Commit()
			_, _ = fmt.Fprintf(c.stdout, "modelmigrate %s\n", v.String())
		},
	}

	rootCmd.AddCommand(addCmd, removeCmd, listCmd, diffCmd, snapshotCmd, versionCmd)
	return rootCmd
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func (c *cli) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

func (c *cli) open() (*modelmigrate.Project, error) {
	cfg, err := config.Load(config.LoadInput{
		ConfigPath: c.configPath,
		Overrides: config.Config{
			ProjectDir:    c.projectDir,
			RootNamespace: c.rootNamespace,
			Owner:         c.owner,
			Model:         c.modelPath,
			Language:      c.language,
			HistoryURLs:   c.historyURLs,
			HistoryTable:  c.historyTable,
		},
	})
	if err != nil {
		return nil, err
	}

	return modelmigrate.Open(&modelmigrate.Options{
		ProjectDir:    cfg.ProjectDirAbs,
		RootNamespace: cfg.RootNamespace,
		Owner:         cfg.Owner,
		ModelPath:     cfg.ModelPath,
		Language:      cfg.Language,
		HistoryURLs:   cfg.HistoryURLs,
		HistoryTable:  cfg.HistoryTable,
		Logger:        c.logger(),
	})
}

func (c *cli) runAdd(cmd *cobra.Command, args []string) error {
	p, err := c.open()
	if err != nil {
		return err
	}
	m, err := p.AddMigration(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if len(m.Up) == 0 {
		_, _ = fmt.Fprintf(c.stdout, "Added empty migration %s (no model changes)\n", m.ID)
	} else {
		_, _ = fmt.Fprintf(c.stdout, "Added migration %s with %d operations\n", m.ID, len(m.Up))
	}
	_, _ = fmt.Fprintf(c.stdout, "  %s\n  %s\n  %s\n", m.MigrationFile, m.MetadataFile, m.SnapshotFile)
	return nil
}

func (c *cli) runRemove(cmd *cobra.Command, args []string) error {
	p, err := c.open()
	if err != nil {
		return err
	}
	files, err := p.RemoveMigration(cmd.Context())
	if err != nil {
		return err
	}

	for _, f := range []string{files.MigrationFile, files.MetadataFile} {
		if f != "" {
			_, _ = fmt.Fprintf(c.stdout, "Removed %s\n", f)
		}
	}
	if files.SnapshotFile != "" {
		verb := "Reverted"
		if _, err := os.Stat(files.SnapshotFile); errors.Is(err, os.ErrNotExist) {
			verb = "Removed"
		}
		_, _ = fmt.Fprintf(c.stdout, "%s %s\n", verb, files.SnapshotFile)
	}
	return nil
}

func (c *cli) runList(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(c.format, c.stdout)
	if err != nil {
		return usageError{err}
	}
	p, err := c.open()
	if err != nil {
		return err
	}
	statuses, err := p.ListMigrations(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([]formatter.MigrationRow, len(statuses))
	for i, s := range statuses {
		rows[i] = formatter.MigrationRow{ID: s.ID, Name: s.Name}
		switch s.State {
		case modelmigrate.StateApplied:
			rows[i].Status = formatter.StatusApplied
		case modelmigrate.StatePending:
			rows[i].Status = formatter.StatusPending
		}
	}
	return f.FormatMigrations(rows)
}

func (c *cli) runDiff(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(c.format, c.stdout)
	if err != nil {
		return usageError{err}
	}
	p, err := c.open()
	if err != nil {
		return err
	}
	up, down, err := p.Diff(cmd.Context())
	if err != nil {
		return err
	}
	return f.FormatOperations(up, down)
}

func (c *cli) runSnapshot(cmd *cobra.Command, args []string) error {
	f, err := formatter.New(c.format, c.stdout)
	if err != nil {
		return usageError{err}
	}
	p, err := c.open()
	if err != nil {
		return err
	}
	m, err := p.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	if c.outputDir == "" {
		return f.FormatModel(m)
	}
	paths, err := p.WriteDocs(m, c.outputDir, c.format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	for _, path := range paths {
		_, _ = fmt.Fprintf(c.stdout, "Wrote %s\n", path)
	}
	return nil
}

// exitCode maps an error to the process exit status: 2 for mistakes in how
// the tool was invoked, 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue usageError
	switch {
	case errors.As(err, &ue),
		modelmigrate.IsUsageError(err),
		errors.Is(err, config.ErrConfigFileNotFound),
		errors.Is(err, config.ErrRootNamespaceEmpty),
		errors.Is(err, config.ErrOwnerEmpty),
		errors.Is(err, config.ErrUnknownLanguage):
		return exitUsage
	default:
		return exitFailure
	}
}

// run executes the command line and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(&cli{stdout: stdout, stderr: stderr})
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
