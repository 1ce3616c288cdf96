package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/textract-sheets/constants"
)

// AllowedExt reports whether the OCR service accepts files with this extension.
func AllowedExt(ext string) bool {
	_, ok := constants.UploadExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
