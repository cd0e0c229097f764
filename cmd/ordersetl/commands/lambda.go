package commands

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/jittakal/ordersetl/internal/pipeline"
	"github.com/jittakal/ordersetl/pkg/event"
)

// lambdaCmd runs as an AWS Lambda function
var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda handler for S3 event notifications",
	Long: `Start the Lambda runtime loop. Each invocation receives an S3 event
notification and returns {"statusCode": 200, "body": "..."}; failures are
returned to the runtime as invocation errors.

Metrics are pushed to the Pushgateway after every invocation when
observability.metrics.push_gateway_url is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLambda(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

// startLambda hands the handler to the Lambda runtime loop.
var startLambda = lambda.Start

func runLambda(ctx context.Context) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	startLambda(lambdaHandler(a))
	return nil
}

// lambdaHandler adapts the pipeline to the Lambda runtime.
func lambdaHandler(a *app) func(context.Context, event.S3Event) (pipeline.Response, error) {
	return func(ctx context.Context, e event.S3Event) (pipeline.Response, error) {
		defer a.pushMetrics(ctx)
		return a.handler.Handle(ctx, e)
	}
}
