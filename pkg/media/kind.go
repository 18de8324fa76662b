package media

import (
	"path/filepath"
	"strings"
)

// Kind mirrors the remote store's resource classes. Bulk deletion there is
// partitioned by kind, and a delete issued under the wrong kind is a silent
// no-op, so every stored attachment reference has to carry its kind.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	// KindRaw covers documents (PDF, Office formats).
	KindRaw Kind = "raw"
)

var extKinds = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"webp": KindImage,
	"mp4":  KindVideo,
	"mov":  KindVideo,
	"mkv":  KindVideo,
	"avi":  KindVideo,
	"pdf":  KindRaw,
	"doc":  KindRaw,
	"docx": KindRaw,
	"xls":  KindRaw,
	"xlsx": KindRaw,
	"ppt":  KindRaw,
	"pptx": KindRaw,
}

// KindForFilename classifies a file by its extension. Files with an
// unsupported extension report ok == false and must be rejected before
// anything is uploaded.
func KindForFilename(name string) (Kind, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	kind, ok := extKinds[ext]
	return kind, ok
}

// Normalize maps an empty or unrecognized kind to raw, the catch-all class.
func Normalize(k Kind) Kind {
	switch k {
	case KindImage, KindVideo, KindRaw:
		return k
	default:
		return KindRaw
	}
}
