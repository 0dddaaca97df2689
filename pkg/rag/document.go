package rag

// Document is a caller-supplied raw text with its 1-based ordinal identifier.
// Immutable once submitted.
type Document struct {
	// ID is the 1-based ordinal assigned in submission order.
	ID int

	// Source is the provenance label, e.g. "user_doc_3".
	Source string

	// Text is the full document text.
	Text string
}

// Chunk is a bounded excerpt of a Document with provenance metadata.
// Chunks are never mutated after creation.
type Chunk struct {
	// DocID is the 1-based identifier of the source document.
	DocID int

	// Source is the provenance label of the source document.
	Source string

	// StartOffset is the character offset of the chunk within the document.
	StartOffset int

	// Text is the chunk content.
	Text string
}
