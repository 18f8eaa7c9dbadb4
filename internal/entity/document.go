package entity

import (
	"time"

	"github.com/sufscan/receipt-processor/constants"
)

// Document is a fetched receipt render, either fresh from the network or
// replayed from the content cache. Transient, per-request.
type Document struct {
	SourceURL   string
	Body        []byte
	ContentType constants.ContentType
	FromCache   bool
	FetchedAt   time.Time
}

// Field is one label/value pair read from a section body, in document order.
type Field struct {
	Label string
	Value string
}

// RawSection is a named top-level slice of the document, not yet normalized.
// Non-journal sections carry Fields; the journal section carries the raw
// tabular text block in Body.
type RawSection struct {
	Name   constants.SectionName
	Fields []Field
	Body   string
}
