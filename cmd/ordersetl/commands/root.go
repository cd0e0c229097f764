// Package commands implements the ordersetl command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// runtimeAPIEnv is set by the Lambda runtime for the bootstrap process.
const runtimeAPIEnv = "AWS_LAMBDA_RUNTIME_API"

var (
	// Global flags
	configPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ordersetl",
	Short: "Flatten order exports into columnar files for the data lake",
	Long: `ordersetl turns a JSON array of nested orders into one row per ordered
product, writes the rows as a columnar file next to the source object and
starts the catalog crawler.

Each trigger mode runs the same invocation:
  lambda   AWS Lambda handler for S3 event notifications
  run      one invocation from an event file or bucket/key flags
  serve    HTTP webhook for S3-compatible notifications
  consume  Kafka consumer group reading notifications

Without a subcommand the Lambda handler starts when AWS_LAMBDA_RUNTIME_API
is set; otherwise this help is printed.

Configuration comes from --config, then CONFIG_PATH, then defaults;
APP_* environment variables override any key (APP_STORAGE_BACKEND=file).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv(runtimeAPIEnv) != "" {
			return runLambda(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
}
