package constants

import "strings"

// Format is the tabular encoding used for result files.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Ext is the file extension (without '.') for the format.
func (f Format) Ext() string {
	return string(f)
}

// ContentType is the MIME type used when uploading the result.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// ParseFormat maps a config value onto a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(NormalizeExt(s)) {
	case FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

// UploadExtensions holds the document types Textract accepts for async detection.
var UploadExtensions = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Result file columns.
const (
	ColumnPageNo = "PageNo"
	ColumnText   = "Text"
)

// LineSeparator joins the lines of one page inside the Text column.
const LineSeparator = "\n"
