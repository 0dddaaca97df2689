package rag

import "fmt"

// Chunker splits documents into overlapping character-based segments.
//
// Chunking is critical for retrieval quality:
//   - Too small: loses context, retrieves fragments
//   - Too large: wastes tokens, dilutes relevance
//
// Overlap preserves context at chunk boundaries.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given target size and overlap,
// both in characters.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("overlap (%d) must be less than size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split chunks every document, preserving document order. Each chunk carries
// the document id, source label and start offset of its text.
func (c *Chunker) Split(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.split(doc)...)
	}
	return chunks
}

func (c *Chunker) split(doc Document) []Chunk {
	runes := []rune(doc.Text)

	if len(runes) <= c.size {
		return []Chunk{{
			DocID:       doc.ID,
			Source:      doc.Source,
			StartOffset: 0,
			Text:        doc.Text,
		}}
	}

	step := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			DocID:       doc.ID,
			Source:      doc.Source,
			StartOffset: start,
			Text:        string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
