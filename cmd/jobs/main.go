// Package main is the Lambda entry point for scheduled jobs.
//
// An EventBridge rule invokes the function with a scheduler.JobPayload, e.g.
// {"task":"advance_notice"} or {"task":"retry_failed"}. Each run holds the
// job lock for its task, so overlapping invocations are skipped rather than
// doubled.
//
// In local mode (APP_ENV=local) the payload is read from stdin and the
// result is printed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"outagealert/internal/app"
	"outagealert/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, awsCfg, logger, err := app.Bootstrap(ctx, "jobs")
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if os.Getenv("APP_ENV") == "local" {
		logger.Info("APP_ENV=local: reading job payload from stdin")
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		var payload scheduler.JobPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("parsing job payload: %w", err)
		}
		result, err := a.Jobs.Handle(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return a.Orchestrator.Drain(ctx)
	}

	logger.Info("starting Lambda handler")
	lambda.Start(a.Jobs.Handle)
	return nil
}
