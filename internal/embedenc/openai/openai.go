// Package openai provides an [embedenc.Encoder] backed by the OpenAI
// embeddings API, used to turn vertex and path labels into vectors for the
// server's and client's own local pre-computation passes (never sent across
// the wire in plaintext).
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/glyphmatch/enrich/internal/embedenc"
)

// DefaultModel is the default OpenAI embeddings model used when none is
// configured.
const DefaultModel = oai.EmbeddingModelTextEmbedding3Small

var _ embedenc.Encoder = (*Encoder)(nil)

// Encoder implements [embedenc.Encoder] using the OpenAI API.
type Encoder struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option configures an [Encoder] at construction time.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an [Encoder]. If model is empty, [DefaultModel] is used.
func New(apiKey, model string, opts ...Option) (*Encoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedenc/openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Encoder{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Encode implements [embedenc.Encoder].
func (e *Encoder) Encode(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: e.model,
		Input: oai.EmbeddingNewParamsInputUnion{OfString: param.NewOpt(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedenc/openai: encode: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedenc/openai: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// EncodeBatch implements [embedenc.Encoder].
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: e.model,
		Input: oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("embedenc/openai: encode batch: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedenc/openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	result := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedenc/openai: unexpected index %d", d.Index)
		}
		result[d.Index] = d.Embedding
	}
	return result, nil
}

// Dimensions implements [embedenc.Encoder].
func (e *Encoder) Dimensions() int {
	return modelDimensions(e.model)
}

// ModelID implements [embedenc.Encoder].
func (e *Encoder) ModelID() string {
	return e.model
}

func modelDimensions(model string) int {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "text-embedding-3-large"):
		return 3072
	case strings.Contains(lower, "text-embedding-3-small"):
		return 1536
	case strings.Contains(lower, "text-embedding-ada-002"):
		return 1536
	default:
		return 1536
	}
}
