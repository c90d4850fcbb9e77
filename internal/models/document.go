package models

// RawDocument is the opaque text content of one invoice, as handed over by
// the document-loading layer. The pipeline never reads files itself.
type RawDocument struct {
	ID   string `json:"id"`   // source reference, e.g. original file name
	Text string `json:"text"` // full extracted text, possibly multi-page
}

// RawLine is one normalized line of a document, kept for audit references.
type RawLine struct {
	Number int    `json:"number"` // 1-based position in the normalized sequence
	Text   string `json:"text"`
}

// UnmatchedLine is a normalized line the extractor could not turn into a
// line item. Lines are recorded, never dropped.
type UnmatchedLine struct {
	Line   RawLine `json:"line"`
	Reason string  `json:"reason"` // UnmatchedNoPattern or UnmatchedBadNumber
}

// Unmatched line reasons
const (
	UnmatchedNoPattern = "NO_PATTERN"
	UnmatchedBadNumber = "BAD_NUMBER"
)
