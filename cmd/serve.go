package cmd

import (
	"context"
	"fmt"

	"github.com/webtech-network/autograder-sub001/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the grading service.
var serveDebug bool

// serveConfigPath points at a directory containing config.yaml. Empty
// means the current working directory.
var serveConfigPath string

// serveCmd starts the grading service: pre-warms the sandbox pools,
// starts the submission HTTP API, and serves until stopped.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the grading service",
	Long: `Starts the gradecore grading service: loads config.yaml, pre-warms
the configured sandbox pools, and serves the submission HTTP API
(POST /configs, POST /submissions, GET /submissions/{id}) until the
process is stopped.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Directory containing config.yaml (default: current directory)")
}
