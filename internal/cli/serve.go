package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/vineyard-health/internal/logging"
	"github.com/ironsheep/vineyard-health/internal/server"
)

func newServeCmd(flags *rootFlags, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Serve the vineyard analysis tools over the MCP protocol (JSON-RPC 2.0 on
stdin/stdout). Configure it in your MCP client; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), flags, os.Getenv(logLevelEnv), logging.FormatConsole)
			if err != nil {
				return err
			}
			log.Debug().
				Str("version", info.Version).
				Str("build_time", info.BuildTime).
				Str("commit", info.GitCommit).
				Msg("starting MCP server")

			srv := server.New(server.WithLogger(log), server.WithVersion(info.Version))
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("vineyard-health %s\n", info.Version)
			cmd.Printf("  Build time: %s\n", info.BuildTime)
			cmd.Printf("  Git commit: %s\n", info.GitCommit)
		},
	}
}
