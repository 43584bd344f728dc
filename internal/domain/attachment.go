package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Attachment references a blob stored next to a message.
type Attachment struct {
	Path      string `json:"path"`
	MediaType string `json:"media_type"`
}

// AttachmentPath builds the storage key for an uploaded file. The millisecond
// prefix keeps two uploads of the same file name apart.
func AttachmentPath(name string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFilename(name))
}

// SanitizeFilename strips directory components and separators from name.
func SanitizeFilename(name string) string {
	clean := filepath.Base(filepath.Clean(name))
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.ReplaceAll(clean, "\\", "_")
	clean = strings.Map(func(r rune) rune {
		if r < 32 || r == 0x7F {
			return -1
		}
		if r == ' ' {
			return '_'
		}
		return r
	}, clean)
	if clean == "." || clean == ".." || clean == "" {
		return "unnamed"
	}
	return clean
}
