package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
)

// rootCmd represents the base command for the gradecore grading service.
var rootCmd = &cobra.Command{
	Use:   "gradecore",
	Short: "Automated code-grading service",
	Long: `gradecore accepts student code submissions against pre-registered
assignment configurations, executes the submitted code in isolated
sandboxes, scores it against a declarative rubric, and returns a
structured report.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	// Load a .env file if present, so GRADECORE_AI_API_KEY and similar
	// secrets can be supplied without exporting them into the shell. A
	// missing file is not an error; a malformed one only warns, since the
	// process can still run on whatever is already in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	rootCmd.SetVersionTemplate(`{{printf "gradecore version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

// init registers every subcommand with the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())
}
