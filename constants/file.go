package constants

import "strings"

// FileFormat is the declared kind of an uploaded artifact.
type FileFormat string

const (
	PDF  FileFormat = "PDF"
	PNG  FileFormat = "PNG"
	JPEG FileFormat = "JPEG"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its declared format.
// Returns "" for anything outside the accepted set.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png":
		return PNG
	case "jpg", "jpeg":
		return JPEG
	default:
		return ""
	}
}

// IsImage reports whether the format is one of the raster image kinds.
func (f FileFormat) IsImage() bool {
	return f == PNG || f == JPEG
}
