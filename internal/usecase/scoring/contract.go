package scoring

import "context"

// TextEmbedder is the consumer interface for text vectors (ISP).
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
