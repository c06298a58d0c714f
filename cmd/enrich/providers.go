package main

import (
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/embedenc"
	embedencmock "github.com/glyphmatch/enrich/internal/embedenc/mock"
	"github.com/glyphmatch/enrich/internal/embedenc/openai"
	"github.com/glyphmatch/enrich/internal/predictor"
	predictormock "github.com/glyphmatch/enrich/internal/predictor/mock"
	"github.com/glyphmatch/enrich/internal/predictor/llmpredict"
	"github.com/glyphmatch/enrich/internal/predictor/llmpredict/anyllm"
)

// buildEncoder constructs the [embedenc.Encoder] named by entry, used for
// both vertex-label embeddings and path-sentence embeddings.
func buildEncoder(entry config.ProviderEntry) (embedenc.Encoder, error) {
	switch strings.ToLower(entry.Name) {
	case "mock":
		return &embedencmock.Encoder{ModelIDValue: "mock-embeddings"}, nil
	case "openai":
		opts := []openai.Option{}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		enc, err := openai.New(entry.APIKey, entry.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("build encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("build encoder: unsupported providers.embeddings.name %q", entry.Name)
	}
}

// buildPredictor constructs the [predictor.Predictor] named by entry. Any
// name other than "mock" is handed to the any-llm-go adapter, which
// recognizes "openai", "anthropic", "gemini", "ollama", "deepseek",
// "mistral", and "groq".
func buildPredictor(entry config.ProviderEntry) (predictor.Predictor, error) {
	if strings.ToLower(entry.Name) == "mock" {
		return &predictormock.Predictor{}, nil
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}

	backend, err := anyllm.New(entry.Name, entry.Model, opts...)
	if err != nil {
		return nil, fmt.Errorf("build predictor: %w", err)
	}
	return llmpredict.New(backend), nil
}
