package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

var (
	cfgFile  string
	logLevel string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "textract-sheets",
	Short: "Run the document-to-spreadsheet OCR pipeline locally",
	Long: `textract-sheets runs the same components the Lambda functions run,
against real AWS services, from a terminal.

  upload / watch  put local documents in the upload bucket
  submit          start an OCR job for an object already in storage
  aggregate       wait for a job and write its result file
  list            print download links for finished result files

Configuration comes from --config (YAML) and the same environment
variables the functions read (BUCKET_NAME, SNS_TOPIC_ARN, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		cfg = c
		logger = common.NewLogger(os.Stderr, cfg.Log.Level)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (YAML); environment variables take precedence",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(submitCmd, aggregateCmd, listCmd, uploadCmd, watchCmd)
}

// printResponse writes the response body to stdout and turns a non-200
// status into a command error.
func printResponse(cmd *cobra.Command, resp events.APIGatewayProxyResponse) error {
	var body any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		body = resp.Body
	}
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if resp.StatusCode != 200 {
		return fmt.Errorf("status %d (%s)", resp.StatusCode, resp.Headers["X-Error-Kind"])
	}
	return nil
}
