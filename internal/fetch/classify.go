package fetch

import (
	"bytes"
	"strings"

	"github.com/sufscan/receipt-processor/constants"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Classify decides the content type of a response: headers first, then a
// sniff of the leading bytes, plain text as the fallback.
func Classify(contentTypeHeader string, body []byte) constants.ContentType {
	header := strings.ToLower(contentTypeHeader)
	switch {
	case strings.Contains(header, "html"), strings.Contains(header, "xml"):
		return constants.ContentMarkup
	case strings.Contains(header, "json"):
		return constants.ContentJSON
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(trimmed) == 0 {
		return constants.ContentText
	}
	switch trimmed[0] {
	case '<':
		return constants.ContentMarkup
	case '{', '[':
		return constants.ContentJSON
	}
	return constants.ContentText
}
