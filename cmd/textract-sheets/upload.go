package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/textract-sheets/internal/async"
	"github.com/joseph-ayodele/textract-sheets/internal/awsx"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/ingest"
	"github.com/joseph-ayodele/textract-sheets/internal/storage"
)

var (
	skipHidden    bool
	initialScan   bool
	watchWorkers  int
	watchDebounce time.Duration
)

func newUploader(ctx context.Context) (*ingest.Uploader, error) {
	if err := cfg.Validate(common.RoleUploader); err != nil {
		return nil, err
	}
	awsCfg, err := awsx.Load(ctx, cfg.AWS, logger)
	if err != nil {
		return nil, err
	}
	store := storage.NewS3StoreFromConfig(awsCfg, cfg.Upload.Bucket, logger)
	return ingest.NewUploader(store, cfg.Upload.Prefix, logger), nil
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file-or-dir>...",
	Short: "Upload documents to the upload bucket",
	Long: `Upload PDF and image documents to {upload.bucket}/{upload.prefix}/.
Directories are walked recursively. Each new object triggers the
submitter when the bucket notification is wired.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := newUploader(ctx)
		if err != nil {
			return err
		}

		var failed int
		for _, p := range args {
			fi, err := os.Stat(p)
			if err != nil {
				return err
			}
			if fi.IsDir() {
				results, stats, err := u.UploadDirectory(ctx, p, skipHidden)
				if err != nil {
					return err
				}
				for _, r := range results {
					printResult(cmd, r)
				}
				failed += int(stats.Failed)
				continue
			}
			res, err := u.UploadPath(ctx, p)
			if err != nil {
				res.Err = err.Error()
				failed++
			}
			printResult(cmd, res)
		}
		if failed > 0 {
			return fmt.Errorf("%d file(s) failed to upload", failed)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Upload documents as they appear in local directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := newUploader(ctx)
		if err != nil {
			return err
		}

		q := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
			res, err := u.UploadPath(common.WithRequestID(ctx, job.TraceID), job.Path)
			if err == nil {
				printResult(cmd, res)
			}
			return err
		}, logger, async.WithWorkers(watchWorkers))

		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       args,
			InitialScan: initialScan,
			SkipHidden:  skipHidden,
			Debounce:    watchDebounce,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		for paths != nil {
			select {
			case p, ok := <-paths:
				if !ok {
					paths = nil
					continue
				}
				if err := q.Enqueue(ctx, async.Job{Path: p, TraceID: uuid.NewString()}); err != nil {
					logger.Warn("watch.enqueue.failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watch.error", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		q.Shutdown(shutdownCtx)
		return nil
	},
}

func printResult(cmd *cobra.Command, r ingest.FileResult) {
	switch {
	case r.Err != "":
		fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %s\n", r.SourcePath, r.Err)
	case r.Deduplicated:
		fmt.Fprintf(cmd.OutOrStdout(), "SAME  %s -> %s\n", r.SourcePath, r.Key)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "OK    %s -> %s (%d bytes)\n", r.SourcePath, r.Key, r.Bytes)
	}
}

func init() {
	for _, c := range []*cobra.Command{uploadCmd, watchCmd} {
		c.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	}
	watchCmd.Flags().BoolVar(&initialScan, "initial-scan", false, "upload files already present when the watch starts")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 4, "concurrent uploads")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle before uploading")
}
