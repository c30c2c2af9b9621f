// Command cascade is the Lambda that propagates soft deletes from the
// entity tables' DynamoDB streams to their children.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/recipes/internal/catalog/dynamo"
	"github.com/jacentio/recipes/internal/config"
	"github.com/jacentio/recipes/stream"
)

func main() {
	cfg, err := config.CascadeFromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	client, err := dynamo.NewClient(context.Background(), cfg.Dynamo)
	if err != nil {
		logger.Error("dynamodb client", "error", err)
		os.Exit(1)
	}
	handler := stream.NewHandler(dynamo.New(client, cfg.Dynamo, logger).Store(), logger)

	if cfg.Batch {
		lambda.Start(handler.HandleBatch)
		return
	}
	lambda.Start(handler.HandleCascadeDelete)
}
