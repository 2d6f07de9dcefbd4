package walker

import (
	"path/filepath"
	"strings"
)

// Media is the kind of input a file holds.
type Media string

const (
	MediaText  Media = "text"
	MediaImage Media = "image"
	MediaOther Media = ""
)

var extensionToMedia = map[string]Media{
	".txt":      MediaText,
	".text":     MediaText,
	".md":       MediaText,
	".markdown": MediaText,
	".rst":      MediaText,
	".adoc":     MediaText,
	".org":      MediaText,
	".tex":      MediaText,
	".csv":      MediaText,
	".html":     MediaText,
	".htm":      MediaText,

	".png":  MediaImage,
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".gif":  MediaImage,
	".webp": MediaImage,
	".bmp":  MediaImage,
	".heic": MediaImage,
	".heif": MediaImage,
}

// DetectMedia classifies a file by its extension.
func DetectMedia(name string) Media {
	return extensionToMedia[strings.ToLower(filepath.Ext(name))]
}
