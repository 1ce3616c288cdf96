package main

import (
	"encoding/json"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/textract-sheets/internal/server"
	"github.com/joseph-ayodele/textract-sheets/internal/trigger"
)

var submitBucket string

var submitCmd = &cobra.Command{
	Use:   "submit <key>...",
	Short: "Start a text-detection job for each object",
	Long: `Start one OCR job per object key and publish the job notification,
exactly as the submitter function does for an upload event.

Examples:
  textract-sheets submit --bucket my-docs upload/report.pdf
  textract-sheets submit upload/a.pdf upload/b.pdf   # bucket from UPLOAD_BUCKET_NAME`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := submitBucket
		if bucket == "" {
			bucket = cfg.Upload.Bucket
		}
		var evt events.S3Event
		for _, key := range args {
			var r events.S3EventRecord
			r.S3.Bucket.Name = bucket
			r.S3.Object.Key = url.QueryEscape(key)
			evt.Records = append(evt.Records, r)
		}

		h, err := server.NewSubmitHandlerFromConfig(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		resp, err := h.Handle(cmd.Context(), evt)
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <job-id>...",
	Short: "Wait for jobs to finish and write their result files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var evt events.SNSEvent
		for _, id := range args {
			msg, err := json.Marshal(trigger.JobMessage{JobID: id})
			if err != nil {
				return err
			}
			var r events.SNSEventRecord
			r.SNS.Message = string(msg)
			evt.Records = append(evt.Records, r)
		}

		h, closeLease, err := server.NewAggregateHandlerFromConfig(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeLease(); err != nil {
				logger.Warn("failed to close lease backend", "error", err)
			}
		}()
		resp, err := h.Handle(cmd.Context(), evt)
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print presigned links to finished result files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := server.NewListHandlerFromConfig(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		resp, err := h.Handle(cmd.Context(), events.APIGatewayProxyRequest{})
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitBucket, "bucket", "", "bucket holding the documents (default: upload.bucket)")
}
