package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/twboot/internal/canonical"
	"github.com/roach88/twboot/internal/harness"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	BootOptions
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	Module  string         `json:"module"`
	Exports map[string]any `json:"exports"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <wiki-dir> <module>",
		Short: "Execute a module and print its exports",
		Long: `Boot a wiki folder, execute one module by title and print its exports.
Functions are shown as <function>.

Exit codes:
  0 - Module executed
  1 - Module failed or is not defined
  2 - Command error

Examples:
  twboot exec ./mywiki '$:/plugins/me/lib/util.hcl'
  twboot exec ./mywiki '$:/boot/tiddlerfields/tags' --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], args[1], cmd)
		},
	}

	addBootFlags(cmd, &opts.BootOptions)
	return cmd
}

func runExec(opts *ExecOptions, dir, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	b, err := bootWiki(cmd.Context(), cmd, opts.RootOptions, &opts.BootOptions, f, dir)
	if err != nil {
		return err
	}

	exports, err := b.Context.Modules.Execute(name, "")
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeModuleFailed, fmt.Sprintf("failed to execute %s", name), err)
	}

	shown, _ := harness.Normalize(exports).(map[string]any)
	if shown == nil {
		shown = map[string]any{}
	}
	if opts.Format == "json" {
		return f.Success(ExecResult{Module: name, Exports: shown})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s\n", name)
	keys := make([]string, 0, len(shown))
	for k := range shown {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		value, err := canonical.Marshal(shown[k])
		if err != nil {
			return fmt.Errorf("render export %s: %w", k, err)
		}
		fmt.Fprintf(w, "  %s = %s\n", k, value)
	}
	return nil
}
