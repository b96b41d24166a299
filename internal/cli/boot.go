package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/twboot/internal/boot"
)

// BootCmdOptions holds flags for the boot command.
type BootCmdOptions struct {
	*RootOptions
	BootOptions
}

// NewBootCommand creates the boot command.
func NewBootCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BootCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "boot <wiki-dir>",
		Short: "Boot a wiki folder and summarise it",
		Long: `Boot a wiki folder: load its tiddlers, unpack plugins into the shadow
layer, define modules and run startup modules.

Exit codes:
  0 - Boot finished without module failures
  1 - Boot finished but one or more modules failed
  2 - Command error (missing folder, invalid tiddlywiki.info, etc.)

Examples:
  twboot boot ./mywiki
  twboot boot ./mywiki --library ./library --format json
  twboot boot ./mywiki --safe-mode`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot(opts, args[0], cmd)
		},
	}

	addBootFlags(cmd, &opts.BootOptions)
	return cmd
}

func runBoot(opts *BootCmdOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	b, err := bootWiki(cmd.Context(), cmd, opts.RootOptions, &opts.BootOptions, f, dir)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		if err := f.Success(b.Summary); err != nil {
			return err
		}
	} else {
		writeSummary(cmd.OutOrStdout(), dir, b.Summary)
	}

	if n := len(b.Summary.Failures); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d module failure(s) during boot", n))
	}
	return nil
}

func writeSummary(w io.Writer, dir string, s *boot.Summary) {
	fmt.Fprintf(w, "✓ Booted %s\n", dir)
	fmt.Fprintf(w, "  Tiddlers: %d\n", s.Tiddlers)
	fmt.Fprintf(w, "  Shadows:  %d\n", s.Shadows)
	fmt.Fprintf(w, "  Plugins:  %s\n", joinOrNone(s.Plugins))
	fmt.Fprintf(w, "  Modules:  %d\n", len(s.Modules))
	fmt.Fprintf(w, "  Startup:  %s\n", joinOrNone(s.Startup))
	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "✗ %d failure(s):\n", len(s.Failures))
		for _, failure := range s.Failures {
			fmt.Fprintf(w, "  %s\n", failure)
		}
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
