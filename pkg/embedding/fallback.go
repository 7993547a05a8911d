package embedding

import (
	"context"

	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// fallbackClient wraps another Client and substitutes a zero vector when the
// call fails, so a single bad chunk cannot abort a whole ingestion run. A
// zero vector matches nothing under cosine similarity.
type fallbackClient struct {
	inner      Client
	dimensions int
}

// NewWithFallback decorates inner with zero-vector fallback behavior.
func NewWithFallback(inner Client, dimensions int) Client {
	return &fallbackClient{inner: inner, dimensions: dimensions}
}

func (c *fallbackClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.inner.CreateEmbedding(ctx, text)
	if err != nil {
		log.Warnf("[EmbeddingClient] embedding failed, falling back to zero vector: %v", err)
		return make([]float32, c.dimensions), nil
	}
	return vector, nil
}
