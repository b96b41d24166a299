package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/loader"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/wikiinfo"
)

// BootOptions holds the flags shared by every command that boots a wiki.
type BootOptions struct {
	Library     string   // folder holding plugins/, themes/ and languages/
	SafeMode    bool     // register only the core plugin
	PluginTypes []string // plugin types registered during boot
	Interactive bool     // wait for acknowledgement after each module failure
	Strict      bool     // exit on the first module failure
}

func addBootFlags(cmd *cobra.Command, opts *BootOptions) {
	cmd.Flags().StringVar(&opts.Library, "library", "", "folder holding plugins/, themes/ and languages/")
	cmd.Flags().BoolVar(&opts.SafeMode, "safe-mode", false, "register only the core plugin")
	cmd.Flags().StringSliceVar(&opts.PluginTypes, "plugin-type", nil, "plugin types to register (default plugin)")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "wait for acknowledgement after each module failure")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 1 on the first module failure")
}

// booted is a wiki after startup.
type booted struct {
	Context *boot.Context
	Source  *loader.WikiSource
	Summary *boot.Summary
}

// reporter picks the failure reporter the flags ask for.
func (o *BootOptions) reporter(cmd *cobra.Command, logger *slog.Logger) boot.Reporter {
	switch {
	case o.Interactive:
		return &boot.ProcessReporter{
			Logger:      logger,
			Interactive: true,
			Acknowledge: boot.PromptAcknowledge(cmd.InOrStdin(), cmd.ErrOrStderr()),
		}
	case o.Strict:
		return &boot.ProcessReporter{Logger: logger}
	default:
		return &boot.LogReporter{Logger: logger}
	}
}

func (o *BootOptions) contextOptions(cmd *cobra.Command, logger *slog.Logger) []boot.Option {
	opts := []boot.Option{
		boot.WithLogger(logger),
		boot.WithReporter(o.reporter(cmd, logger)),
		boot.WithSafeMode(o.SafeMode),
	}
	if len(o.PluginTypes) > 0 {
		opts = append(opts, boot.WithPluginTypes(o.PluginTypes...))
	}
	return opts
}

// bootWiki loads the wiki folder at dir and boots it. Failures are reported
// through f and returned as ExitErrors.
func bootWiki(ctx context.Context, cmd *cobra.Command, root *RootOptions, opts *BootOptions, f *OutputFormatter, dir string) (*booted, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("wiki folder not found: %s", dir), nil)
	}

	logger := newLogger(root, cmd.ErrOrStderr())
	c, err := boot.New(opts.contextOptions(cmd, logger)...)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeGeneric, "create boot context", err)
	}

	l := loader.New(c.FileTypes, c.Deserializers,
		loader.WithLogger(logger),
		loader.WithCoreVersion(module.Version))
	var wopts []loader.WikiOption
	if opts.Library != "" {
		wopts = append(wopts, loader.WithLibrary(opts.Library))
	}
	src := l.Wiki(dir, wopts...)

	f.VerboseLog("Booting %s", dir)
	summary, err := c.Startup(ctx, src)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, loader.ErrNoWikiInfo) || wikiinfo.IsError(err) {
			code = ExitCommandError
		}
		return nil, f.Fail(code, ErrCodeBootFailed, fmt.Sprintf("failed to boot %s", dir), err)
	}
	f.VerboseLog("Loaded %d files, %d tiddlers, %d shadows", len(src.Files()), summary.Tiddlers, summary.Shadows)

	return &booted{Context: c, Source: src, Summary: summary}, nil
}
