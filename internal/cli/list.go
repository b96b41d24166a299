package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	BootOptions
	Shadows bool // list the shadow layer instead of the real one
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Layer  string   `json:"layer"`
	Titles []string `json:"titles"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <wiki-dir>",
		Short: "List tiddler titles of a booted wiki",
		Long: `Boot a wiki folder and print the titles of its real layer, or of its
shadow layer with --shadows, one per line in ascending order.

Examples:
  twboot list ./mywiki
  twboot list ./mywiki --shadows --library ./library`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	addBootFlags(cmd, &opts.BootOptions)
	cmd.Flags().BoolVar(&opts.Shadows, "shadows", false, "list shadow tiddlers")
	return cmd
}

func runList(opts *ListOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	b, err := bootWiki(cmd.Context(), cmd, opts.RootOptions, &opts.BootOptions, f, dir)
	if err != nil {
		return err
	}

	result := ListResult{Layer: "real", Titles: b.Context.Wiki.AllTitles()}
	if opts.Shadows {
		result = ListResult{Layer: "shadow", Titles: b.Context.Wiki.ShadowTitles()}
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	for _, title := range result.Titles {
		fmt.Fprintln(cmd.OutOrStdout(), title)
	}
	return nil
}
