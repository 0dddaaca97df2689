package rag

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kadirpekel/debaterag/pkg/embedders"
)

// Retriever indexes chunks and returns the top-k most similar to a query.
// Implementations are single-use: one index per request, never shared.
type Retriever interface {
	// Index embeds and stores the chunks.
	Index(ctx context.Context, chunks []Chunk) error

	// Search returns up to k chunks most similar to query, best first.
	// Tie order is implementation-defined.
	Search(ctx context.Context, query string, k int) ([]Chunk, error)
}

// ChromemRetriever is an in-memory Retriever backed by chromem-go.
// Vectors are computed externally via the embedder and stored precomputed;
// nothing is persisted.
type ChromemRetriever struct {
	embedder   embedders.Embedder
	collection *chromem.Collection
	count      int
}

// NewChromemRetriever creates an empty in-memory index.
func NewChromemRetriever(embedder embedders.Embedder) (*ChromemRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	// Precomputed vectors only: the embedding func must never be invoked.
	identityEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function called but vectors should be pre-computed")
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("chunks", nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &ChromemRetriever{
		embedder:   embedder,
		collection: collection,
	}, nil
}

// Index embeds all chunk texts in one batch call and upserts them with
// precomputed vectors.
func (r *ChromemRetriever) Index(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      strconv.Itoa(i),
			Content: chunk.Text,
			Metadata: map[string]string{
				"doc_id":       strconv.Itoa(chunk.DocID),
				"source":       chunk.Source,
				"start_offset": strconv.Itoa(chunk.StartOffset),
			},
			Embedding: vectors[i],
		}
	}

	if err := r.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	r.count = len(chunks)

	return nil
}

// Search embeds the query and returns the k most similar chunks.
func (r *ChromemRetriever) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k > r.count {
		k = r.count
	}
	if k <= 0 {
		return nil, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, result := range results {
		docID, _ := strconv.Atoi(result.Metadata["doc_id"])
		startOffset, _ := strconv.Atoi(result.Metadata["start_offset"])
		chunks = append(chunks, Chunk{
			DocID:       docID,
			Source:      result.Metadata["source"],
			StartOffset: startOffset,
			Text:        result.Content,
		})
	}

	return chunks, nil
}

var _ Retriever = (*ChromemRetriever)(nil)
