package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/storage"
)

// FileResult is the per-file upload outcome.
type FileResult struct {
	SourcePath   string
	Key          string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Bytes        int
	UploadedAt   time.Time
	Err          string
}

// DirStats summarizes a directory upload.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Uploader puts local documents under the upload prefix, where each new
// object starts an OCR job.
type Uploader struct {
	store  storage.Store
	prefix string
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // key -> content hash already uploaded by this process
}

func NewUploader(store storage.Store, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
		seen:   map[string]string{},
	}
}

// KeyFor is the object key a local file is uploaded to.
func (u *Uploader) KeyFor(p string) string {
	return path.Join(u.prefix, filepath.Base(p))
}

// UploadPath uploads one file. Re-uploading identical content to the same
// key is skipped so repeated write events do not start duplicate jobs.
func (u *Uploader) UploadPath(ctx context.Context, p string) (FileResult, error) {
	out := FileResult{SourcePath: p}

	ext := constants.NormalizeExt(filepath.Ext(p))
	contentType, ok := constants.UploadExtensions[ext]
	if !ok {
		return out, common.Errorf(common.KindInputMalformed, common.ErrInvalidInput, "unsupported extension %q", ext)
	}
	out.FileExt = ext

	body, err := os.ReadFile(p)
	if err != nil {
		u.logger.Error("upload.read.failed", "path", p, "error", err)
		return out, common.NewAppError(common.KindInputMalformed, "read "+p, err)
	}
	sum := sha256.Sum256(body)
	out.HashHex = hex.EncodeToString(sum[:])
	out.Key = u.KeyFor(p)
	out.Bytes = len(body)

	// reserve the key before uploading so concurrent workers see the hash
	u.mu.Lock()
	prev, had := u.seen[out.Key]
	if had && prev == out.HashHex {
		u.mu.Unlock()
		out.Deduplicated = true
		u.logger.Info("upload.skip.duplicate", "path", p, "key", out.Key)
		return out, nil
	}
	u.seen[out.Key] = out.HashHex
	u.mu.Unlock()

	if err := u.store.Put(ctx, out.Key, body, contentType); err != nil {
		u.mu.Lock()
		if u.seen[out.Key] == out.HashHex {
			if had {
				u.seen[out.Key] = prev
			} else {
				delete(u.seen, out.Key)
			}
		}
		u.mu.Unlock()
		return out, err
	}

	out.UploadedAt = time.Now().UTC()
	u.logger.Info("upload.ok", "path", p, "key", out.Key, "bytes", out.Bytes, "sha256", out.HashHex)
	return out, nil
}

// UploadDirectory walks root and uploads every allowed file. Per-file
// failures are recorded and the walk continues.
func (u *Uploader) UploadDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []FileResult
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{SourcePath: p, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(p) && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(p)) {
			return nil
		}
		stats.Matched++

		res, err := u.UploadPath(ctx, p)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			stats.Failed++
			return nil
		}
		results = append(results, res)
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	u.logger.Info("upload.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
