package video

import (
	"path/filepath"
	"strings"
)

// mediaTypes maps known container extensions to response content types.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// defaultMediaType is served for unknown container extensions.
const defaultMediaType = "video/mp4"

// MediaTypeFor returns the response content type for a stored filename
// based on its extension.
func MediaTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return defaultMediaType
}
