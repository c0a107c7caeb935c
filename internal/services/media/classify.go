// Package media manages uploaded files: classification, object storage
// placement, and the media library records behind the back office.
package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind buckets uploads by how the site renders them.
type Kind string

// Media kinds.
const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindOther    Kind = "other"
)

var documentExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".txt": {}, ".md": {}, ".csv": {},
	".odt": {}, ".ods": {}, ".rtf": {},
}

// Classify buckets a file by its declared content type, falling back to the
// filename extension when the type is missing or generic.
func Classify(filename, contentType string) Kind {
	if kind, ok := classifyContentType(contentType); ok {
		return kind
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := documentExtensions[ext]; ok {
		return KindDocument
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if kind, ok := classifyContentType(byExt); ok {
			return kind
		}
	}
	return KindOther
}

func classifyContentType(contentType string) (Kind, bool) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, true
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio, true
	case contentType == "application/pdf", strings.HasPrefix(contentType, "text/"):
		return KindDocument, true
	}
	return KindOther, false
}
