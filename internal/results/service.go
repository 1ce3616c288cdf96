package results

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/storage"
)

// Status is the outcome of a listing.
type Status int

const (
	StatusReady Status = iota
	StatusNotReady
	StatusNoFiles
)

const MessageNotReady = "Download not ready yet."

// Listing is what the lister reports. URLs is set only when Status is StatusReady.
type Listing struct {
	Status  Status
	URLs    []string
	Message string
}

// Service lists finished result files and hands out presigned links.
type Service struct {
	store  storage.Store
	prefix string
	format constants.Format
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates a lister over prefix. A zero ttl means one hour.
func NewService(store storage.Store, prefix string, format constants.Format, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if format == "" {
		format = constants.FormatCSV
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		format: format,
		ttl:    ttl,
		logger: logger,
	}
}

// NoFilesMessage is reported when nothing exists under the prefix.
func NoFilesMessage(format constants.Format) string {
	return fmt.Sprintf("No %s files found.", strings.ToUpper(format.Ext()))
}

// List presigns every result file under the prefix, in storage order.
func (s *Service) List(ctx context.Context) (Listing, error) {
	log := common.LoggerFromContext(ctx, s.logger)
	listPrefix := s.prefix + "/"

	keys, err := s.store.List(ctx, listPrefix)
	if err != nil {
		log.Error("results.list.failed", "prefix", listPrefix, "error", err)
		if common.KindOf(err) == common.KindUnknown {
			err = common.NewAppError(common.KindStorageFailure, "list results", err)
		}
		return Listing{}, err
	}
	if len(keys) == 0 {
		log.Info("results.list.empty", "prefix", listPrefix)
		return Listing{Status: StatusNoFiles, Message: NoFilesMessage(s.format)}, nil
	}

	ext := "." + s.format.Ext()
	var matches []string
	for _, k := range keys {
		if strings.HasSuffix(k, ext) && path.Base(k) != ext {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		log.Info("results.list.not_ready", "prefix", listPrefix, "objects", len(keys))
		return Listing{Status: StatusNotReady, Message: MessageNotReady}, nil
	}

	urls := make([]string, 0, len(matches))
	for _, k := range matches {
		u, err := s.store.PresignGet(ctx, k, s.ttl)
		if err != nil {
			log.Error("results.presign.failed", "key", k, "error", err)
			if common.KindOf(err) == common.KindUnknown {
				err = common.NewAppError(common.KindStorageFailure, "presign "+k, err)
			}
			return Listing{}, err
		}
		urls = append(urls, u)
	}
	log.Info("results.list.ok", "prefix", listPrefix, "files", len(urls), "ttl", s.ttl.String())
	return Listing{Status: StatusReady, URLs: urls}, nil
}
