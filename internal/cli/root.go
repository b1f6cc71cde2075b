package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config starts from the environment; flags override it.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the lodestar root command. cfg supplies flag
// defaults, normally from config.Load.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "lodestar",
		Short: "Lodestar - narrative decision engine",
		Long: `Lodestar drives branching quests and dialogue trees for a space RPG.

Content is authored as CUE or YAML graphs. Games are kept in named save
slots in a SQLite database, with the full event log of every choice.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				opts.Config.LogLevel = "debug"
			}
			if err := opts.Config.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.Config.DBPath, "db", cfg.DBPath, "save database path")
	pf.StringVar(&opts.Config.ContentDir, "content", cfg.ContentDir, "content directory")
	pf.StringVar(&opts.Config.Slot, "slot", cfg.Slot, "save slot name")
	pf.StringVar(&opts.Config.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this file on exit")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewChooseCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAbandonCommand(opts))
	cmd.AddCommand(NewExternalCommand(opts))
	cmd.AddCommand(NewSlotsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
