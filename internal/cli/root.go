// Package cli implements the spinecheck command line
package cli

import (
	"fmt"
	"os"

	"github.com/liamcoop/spinecheck/catalog"
	"github.com/liamcoop/spinecheck/internal/config"
	"github.com/liamcoop/spinecheck/internal/logger"
	"github.com/liamcoop/spinecheck/scoring"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

// app is the state shared by every subcommand
type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spinecheck",
		Short: "Spine symptom self-assessment",
		Long: `spinecheck ranks likely spine conditions from reported pain locations,
symptoms, aggravating triggers, duration and pain level.

The result is a screening aid, not a diagnosis. Anyone reporting bladder or
bowel dysfunction should seek emergency care.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./spinecheck.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newAssessCommand(a),
		newConditionsCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads the configuration; logs go to stderr so stdout stays parseable
func (a *app) load() error {
	logger.SetOutput(os.Stderr)
	if a.verbose {
		logger.SetLevel(logger.LevelDebug)
	} else {
		logger.SetLevel(logger.LevelWarning)
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Log.Level != "" && !a.verbose {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log.level: %w", err)
		}
		logger.SetLevel(level)
	}
	if cfg.File != "" {
		logger.Debug("using config file", "path", cfg.File)
	}
	return nil
}

func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cfg.Catalog.Path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(a.cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", a.cfg.Catalog.Path, err)
	}
	return cat, nil
}

func (a *app) engine() (*scoring.Engine, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(cat, a.cfg.Scoring.Options, a.cfg.Scoring.Adjustments...)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spinecheck %s\n", Version)
		},
	}
}
