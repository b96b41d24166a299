package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/twboot/internal/deserialize"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	BootOptions
	Shadow bool // read the shadow layer even when a real tiddler overrides it
}

// TiddlerResult is the JSON payload of the get command.
type TiddlerResult struct {
	Title  string            `json:"title"`
	Layer  string            `json:"layer"`
	Source string            `json:"source,omitempty"`
	Fields map[string]string `json:"fields"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <wiki-dir> <title>",
		Short: "Print a tiddler from a booted wiki",
		Long: `Boot a wiki folder and print one tiddler. A real tiddler wins over a
shadow of the same title unless --shadow is given. Text output uses the
.tid format.

Examples:
  twboot get ./mywiki 'HelloThere'
  twboot get ./mywiki '$:/plugins/me/lib/readme' --format json
  twboot get ./mywiki '$:/core/readme' --shadow`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	addBootFlags(cmd, &opts.BootOptions)
	cmd.Flags().BoolVar(&opts.Shadow, "shadow", false, "read the shadow layer")
	return cmd
}

func runGet(opts *GetOptions, dir, title string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	b, err := bootWiki(cmd.Context(), cmd, opts.RootOptions, &opts.BootOptions, f, dir)
	if err != nil {
		return err
	}
	w := b.Context.Wiki

	t := w.GetTiddler(title)
	layer := "real"
	if opts.Shadow || !w.TiddlerExists(title) {
		t = w.GetShadowTiddler(title)
		layer = "shadow"
	}
	if t == nil {
		return f.Fail(ExitFailure, ErrCodeNoTiddler, fmt.Sprintf("tiddler not found: %s", title), nil)
	}

	if opts.Format == "json" {
		result := TiddlerResult{
			Title:  title,
			Layer:  layer,
			Fields: b.Context.Codecs.Stringify(t),
		}
		if layer == "shadow" {
			result.Source, _ = w.ShadowSource(title)
		}
		return f.Success(result)
	}

	fmt.Fprint(cmd.OutOrStdout(), deserialize.StringifyTid(t, b.Context.Codecs))
	return nil
}
