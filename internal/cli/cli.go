// Package cli wires the vineyard-health commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/vineyard-health/internal/logging"
)

// BuildInfo is the version metadata stamped into the binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Environment variable read when --log-level is not given.
const logLevelEnv = "VINEYARD_HEALTH_LOG_LEVEL"

type rootFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCmd creates the root Cobra command
func NewRootCmd(info BuildInfo) *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:   "vineyard-health",
		Short: "Estimate vineyard health from NIR and RGB orthomosaics",
		Long: `vineyard-health computes NDVI from a near-infrared and an RGB orthomosaic,
aggregates it into a grid of cells and reports vineyard health statistics.
It can also run as an MCP server exposing the same analysis as tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug|info|warn|error); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (console|json); overrides the config file")

	rootCmd.AddCommand(newAnalyzeCmd(&flags))
	rootCmd.AddCommand(newServeCmd(&flags, info))
	rootCmd.AddCommand(newVersionCmd(info))

	return rootCmd
}

// Execute runs the root command with args and returns the first error.
func Execute(ctx context.Context, info BuildInfo, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd(info)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// newLogger builds the stderr logger. Flag values win over the fallbacks,
// which come from the config file or the environment.
func newLogger(w io.Writer, flags *rootFlags, fallbackLevel, fallbackFormat string) (zerolog.Logger, error) {
	levelName := flags.logLevel
	if levelName == "" {
		levelName = fallbackLevel
	}
	format := flags.logFormat
	if format == "" {
		format = fallbackFormat
	}

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("--log-level: %w", err)
	}
	return logging.New(w, level, format), nil
}
