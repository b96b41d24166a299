package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	BootOptions
	DBPath string
	Label  string
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <wiki-dir>",
		Short: "Persist the real layer of a booted wiki",
		Long: `Boot a wiki folder and store every real tiddler in a SQLite snapshot.
The database is created if it does not exist.

Examples:
  twboot snapshot ./mywiki --db ./wiki.db
  twboot snapshot ./mywiki --db ./wiki.db --label before-upgrade`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], cmd)
		},
	}

	addBootFlags(cmd, &opts.BootOptions)
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label stored with the snapshot")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runSnapshot(opts *SnapshotOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	b, err := bootWiki(cmd.Context(), cmd, opts.RootOptions, &opts.BootOptions, f, dir)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	info, err := st.SaveWiki(cmd.Context(), opts.Label, b.Context.Wiki)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStoreFailed, "failed to save snapshot", err)
	}

	if opts.Format == "json" {
		return f.Success(info)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Snapshot %d (%s)\n", info.Seq, info.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "  Tiddlers: %d\n", info.Tiddlers)
	fmt.Fprintf(cmd.OutOrStdout(), "  Hash:     %s\n", info.Hash)
	return nil
}

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	BootOptions
	DBPath string
	ID     string   // snapshot to boot; empty means the latest
	List   bool     // list snapshots instead of booting one
	Where  []string // field=value terms; print matching titles instead of booting
	Prefix string   // title prefix; print matching titles instead of booting
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "List stored snapshots, query or boot one",
		Long: `List the snapshots in a database, print the titles in a snapshot that
match --where and --prefix, or boot a snapshot as the only source of
tiddlers and summarise it.

Exit codes:
  0 - Success
  1 - Boot finished but one or more modules failed
  2 - Command error (database or snapshot not found)

Examples:
  twboot restore --db ./wiki.db --list
  twboot restore --db ./wiki.db --where tags=journal --prefix 'Journal '
  twboot restore --db ./wiki.db
  twboot restore --db ./wiki.db --id 0190a4c2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "snapshot ID (default latest)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list snapshots")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "print titles whose field equals a value (field=value, repeatable)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "print titles starting with a prefix")
	cmd.Flags().BoolVar(&opts.SafeMode, "safe-mode", false, "register only the core plugin")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 1 on the first module failure")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runRestore(opts *RestoreOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if _, err := os.Stat(opts.DBPath); os.IsNotExist(err) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DBPath), nil)
	}
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	if opts.List {
		infos, err := st.ListSnapshots(ctx)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeStoreFailed, "failed to list snapshots", err)
		}
		if opts.Format == "json" {
			if infos == nil {
				infos = []store.SnapshotInfo{}
			}
			return f.Success(infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
			return nil
		}
		for _, info := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d tiddlers\t%s\t%s\n",
				info.Seq, info.ID, info.Tiddlers, info.CreatedAt.Format(time.RFC3339), info.Label)
		}
		return nil
	}

	if len(opts.Where) > 0 || opts.Prefix != "" {
		return runQuery(opts, st, f, cmd)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	c, err := boot.New(opts.contextOptions(cmd, logger)...)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "create boot context", err)
	}
	src := st.Source(opts.ID)
	summary, err := c.Startup(ctx, src)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshots) || store.IsNotFound(err) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "snapshot not found", err)
		}
		return f.Fail(ExitFailure, ErrCodeBootFailed, fmt.Sprintf("failed to boot %s", src.Name()), err)
	}

	if opts.Format == "json" {
		if err := f.Success(summary); err != nil {
			return err
		}
	} else {
		writeSummary(cmd.OutOrStdout(), src.Name(), summary)
	}
	if n := len(summary.Failures); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d module failure(s) during boot", n))
	}
	return nil
}

func runQuery(opts *RestoreOptions, st *store.Store, f *OutputFormatter, cmd *cobra.Command) error {
	pred, err := store.ParseWhere(opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid --where", err)
	}
	if opts.Prefix != "" {
		and := pred.(store.And)
		and.Predicates = append(and.Predicates, store.TitlePrefix{Prefix: opts.Prefix})
		pred = and
	}

	titles, err := st.FindTitles(cmd.Context(), opts.ID, pred)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshots) || store.IsNotFound(err) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "snapshot not found", err)
		}
		return f.Fail(ExitFailure, ErrCodeStoreFailed, "failed to query snapshot", err)
	}

	if opts.Format == "json" {
		return f.Success(ListResult{Layer: "snapshot", Titles: titles})
	}
	for _, title := range titles {
		fmt.Fprintln(cmd.OutOrStdout(), title)
	}
	return nil
}
