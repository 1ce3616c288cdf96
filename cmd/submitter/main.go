package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/server"
)

func main() {
	cfg, err := common.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		common.NewLogger(os.Stderr, "info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log.Level)

	h, err := server.NewSubmitHandlerFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to start submitter", "error", err)
		os.Exit(1)
	}
	lambda.Start(h.Handle)
}
