package models

import "time"

// EventCandidate represents a single calendar-worthy event extracted from
// webpage text. Candidates are created by the extraction pipeline, scored
// for confidence, and consumed read-only by the calendar encoder.
type EventCandidate struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`     // ISO date (YYYY-MM-DD), or the raw literal if unparsable
	Time        string  `json:"time"`     // 24-hour H:MM / HH:MM, empty when no time was paired
	Location    string  `json:"location"`
	Description string  `json:"description"`
	SourceURL   string  `json:"source_url,omitempty"` // page the event was extracted from
	Source      string  `json:"source"`               // primary|fallback
	Confidence  float64 `json:"confidence"`           // [0,1]
}

// Extraction source values. Source is set exactly once at creation and
// never changed afterwards.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// TextBlock is a contiguous unit of page text treated as one extraction
// unit. Blocks are transient: produced by the block extractor and consumed
// immediately by the event assembler.
type TextBlock struct {
	Text       string `json:"text"`
	SourceHint string `json:"source_hint"` // structured|paragraph
}

// Block source hints.
const (
	BlockSourceStructured = "structured"
	BlockSourceParagraph  = "paragraph"
)

// RawMatch is a single date or time pattern hit within a piece of text.
type RawMatch struct {
	Kind     string `json:"kind"` // date|time
	Literal  string `json:"literal"`
	Position int    `json:"position"` // byte offset within the searched text
}

// Raw match kinds.
const (
	MatchKindDate = "date"
	MatchKindTime = "time"
)

// Entity is a labeled named-entity span returned by an annotator. Entities
// live only for the duration of one scan and are never persisted.
type Entity struct {
	Label    string `json:"label"` // location|organization|other
	Literal  string `json:"literal"`
	Position int    `json:"position"`
}

// Entity labels.
const (
	EntityLocation     = "location"
	EntityOrganization = "organization"
	EntityOther        = "other"
)

// ScanResult is the outcome of one complete scan pass over a page.
type ScanResult struct {
	ScanID        string           `json:"scan_id"`
	URL           string           `json:"url,omitempty"`
	Events        []EventCandidate `json:"events"`
	UsedFallback  bool             `json:"used_fallback"`
	BlocksScanned int              `json:"blocks_scanned"`
	ScannedAt     time.Time        `json:"scanned_at"`
}

// StructuredElement is a DOM-derived candidate supplied by the page-scanning
// collaborator: the visible text of an element whose class/id hints at an
// event, or a semantic article-like element. The core never touches DOM
// APIs itself.
type StructuredElement struct {
	Text     string `json:"text"`
	Selector string `json:"selector,omitempty"` // matched selector, informational only
}
