package entity

import "time"

// RawSourceKind hints at how a raw unit's payload should be parsed.
type RawSourceKind string

const (
	// RawKindHTML is a structured markup export (FAQ sections, list items).
	RawKindHTML RawSourceKind = "html"
	// RawKindText is a free-form community text blob.
	RawKindText RawSourceKind = "text"
	// RawKindRSS is a syndicated feed export (XML payload, already retrieved).
	RawKindRSS RawSourceKind = "rss"
)

// RawSourceUnit is the contract the pipeline consumes from the out-of-scope
// retrieval collaborators. One unit carries one payload plus the metadata
// needed to build provenance records.
type RawSourceUnit struct {
	Kind        RawSourceKind
	Origin      string // source URL or free-form description
	Payload     string
	CardCode    string // card code the unit was filed under, when the source is card-scoped
	SourceName  string
	SourceDate  string
	Retriever   string
	RetrievedAt time.Time
	// Supersedes carries the provenance key of an earlier unit this one
	// explicitly updates, when the retriever knows the relationship.
	Supersedes string
}
