package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
)

// Artifact is a fully rendered result file, ready for a single upload.
type Artifact struct {
	Key         string
	Body        []byte
	ContentType string
	Rows        int
}

// Service renders page mappings into tabular result files.
type Service struct {
	format constants.Format
	logger *slog.Logger
}

func NewService(format constants.Format, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if format == "" {
		format = constants.FormatCSV
	}
	return &Service{format: format, logger: logger}
}

// ResultKey is the deterministic storage key for a job's result. The job id
// is opaque and is never path-cleaned, so the key always stays under prefix.
func ResultKey(prefix, jobID string, format constants.Format) string {
	name := jobID + "." + format.Ext()
	if p := strings.Trim(prefix, "/"); p != "" {
		return p + "/" + name
	}
	return name
}

// Export renders pt in the configured format under the job's result key.
func (s *Service) Export(ctx context.Context, prefix, jobID string, pt *entity.PageText) (Artifact, error) {
	start := time.Now()
	var (
		body []byte
		err  error
	)
	switch s.format {
	case constants.FormatXLSX:
		body, err = s.ExportPageTextXLSX(ctx, pt)
	default:
		body, err = s.ExportPageTextCSV(ctx, pt)
	}
	if err != nil {
		return Artifact{}, common.NewAppError(common.KindStorageFailure, fmt.Sprintf("render %s for job %s", s.format, jobID), err)
	}

	a := Artifact{
		Key:         ResultKey(prefix, jobID, s.format),
		Body:        body,
		ContentType: s.format.ContentType(),
		Rows:        pt.Len(),
	}
	s.logger.Info("export.render.ok",
		"job_id", jobID,
		"format", string(s.format),
		"rows", a.Rows,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// ExportPageTextCSV writes a header plus one PageNo,Text row per page.
func (s *Service) ExportPageTextCSV(_ context.Context, pt *entity.PageText) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{constants.ColumnPageNo, constants.ColumnText}); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, p := range pt.Pages() {
		if err := w.Write([]string{strconv.Itoa(p.Page), p.Text()}); err != nil {
			return nil, fmt.Errorf("csv row %d: %w", p.Page, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPageTextXLSX returns a single-sheet workbook with the same two columns.
func (s *Service) ExportPageTextXLSX(_ context.Context, pt *entity.PageText) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("xlsx close failed", "error", err)
		}
	}()

	const sheet = "Pages"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{constants.ColumnPageNo, constants.ColumnText}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, err
	}

	row := 2
	for _, p := range pt.Pages() {
		pageCell, _ := excelize.CoordinatesToCellName(1, row)
		textCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, pageCell, p.Page); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, textCell, p.Text()); err != nil {
			return nil, err
		}
		_ = f.SetCellStyle(sheet, textCell, textCell, wrap)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)  // page
	_ = f.SetColWidth(sheet, "B", "B", 100) // text

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
