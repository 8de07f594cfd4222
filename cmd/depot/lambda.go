package main

import (
	"fmt"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
	depotlambda "github.com/sagarc03/depot/lambda"
	"github.com/sagarc03/depot/router"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function",
	Long: `Run depot as an AWS Lambda handler behind API Gateway.

The REST API proxy integration (payload v1) is served by default. Use
--payload v2 for an HTTP API with payload format 2.0.`,
	RunE: runLambda,
}

func init() {
	lambdaCmd.Flags().String("payload", "v1", "API Gateway payload format: v1, v2")

	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	payload, _ := cmd.Flags().GetString("payload")
	if payload != "v1" && payload != "v2" {
		return fmt.Errorf("unsupported payload format: %q", payload)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	handler := depotlambda.NewHandler(router.New(a.service))

	if payload == "v2" {
		awslambda.StartWithOptions(handler.HandleHTTP, awslambda.WithContext(ctx))
	} else {
		awslambda.StartWithOptions(handler.HandleProxy, awslambda.WithContext(ctx))
	}

	return nil
}
