package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jittakal/ordersetl/pkg/event"
)

var (
	// Run flags
	eventFile string
	bucket    string
	key       string
)

// runCmd runs a single invocation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one object and exit",
	Long: `Run one invocation and print the response as JSON.

The trigger event comes from --event (an S3 event notification file, "-" for
stdin) or is built from --bucket and --key.

Examples:
  ordersetl run --event testdata/put.json
  APP_STORAGE_BACKEND=file APP_STORAGE_FILE_BASE_PATH=./data \
    ordersetl run --bucket raw --key orders.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&eventFile, "event", "e", "", "S3 event notification file (- for stdin)")
	runCmd.Flags().StringVar(&bucket, "bucket", "", "Source bucket")
	runCmd.Flags().StringVar(&key, "key", "", "Source object key")
	runCmd.MarkFlagsMutuallyExclusive("event", "bucket")
	runCmd.MarkFlagsMutuallyExclusive("event", "key")
	runCmd.MarkFlagsRequiredTogether("bucket", "key")
}

func runOnce(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	e, err := triggerEvent(stdin)
	if err != nil {
		return err
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.pushMetrics(ctx)

	resp, err := a.handler.Handle(ctx, e)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func triggerEvent(stdin io.Reader) (event.S3Event, error) {
	switch {
	case eventFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return event.S3Event{}, fmt.Errorf("failed to read event: %w", err)
		}
		return event.Parse(data)
	case eventFile != "":
		data, err := os.ReadFile(eventFile)
		if err != nil {
			return event.S3Event{}, fmt.Errorf("failed to read event: %w", err)
		}
		return event.Parse(data)
	case bucket != "" && key != "":
		return event.New(bucket, key), nil
	default:
		return event.S3Event{}, fmt.Errorf("either --event or --bucket and --key is required")
	}
}
