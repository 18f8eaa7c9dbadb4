package constants

import "strings"

// ContentType classifies a fetched document body.
type ContentType string

const (
	ContentMarkup ContentType = "MARKUP"
	ContentJSON   ContentType = "JSON"
	ContentText   ContentType = "TEXT"
)

// Extensions holds the cache file extension for each content type.
var Extensions = map[ContentType]string{
	ContentMarkup: "html",
	ContentJSON:   "json",
	ContentText:   "txt",
}

// Ext returns the cache file extension for a content type, falling back to
// the plain-text extension for anything unrecognized.
func Ext(ct ContentType) string {
	if ext, ok := Extensions[ct]; ok {
		return ext
	}
	return Extensions[ContentText]
}

// TypeForExt is the inverse of Ext, used when reading entries back from the cache.
func TypeForExt(ext string) ContentType {
	switch NormalizeExt(ext) {
	case "html", "htm":
		return ContentMarkup
	case "json":
		return ContentJSON
	default:
		return ContentText
	}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
