package main

import (
	"testing"

	"github.com/glyphmatch/enrich/internal/config"
	embedencmock "github.com/glyphmatch/enrich/internal/embedenc/mock"
	"github.com/glyphmatch/enrich/internal/embedenc/openai"
	predictormock "github.com/glyphmatch/enrich/internal/predictor/mock"
	"github.com/glyphmatch/enrich/internal/predictor/llmpredict"
)

func TestBuildEncoderMock(t *testing.T) {
	enc, err := buildEncoder(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("buildEncoder: %v", err)
	}
	if _, ok := enc.(*embedencmock.Encoder); !ok {
		t.Errorf("buildEncoder(mock): want *mock.Encoder, got %T", enc)
	}
}

func TestBuildEncoderCaseInsensitive(t *testing.T) {
	enc, err := buildEncoder(config.ProviderEntry{Name: "MOCK"})
	if err != nil {
		t.Fatalf("buildEncoder: %v", err)
	}
	if _, ok := enc.(*embedencmock.Encoder); !ok {
		t.Errorf("buildEncoder(MOCK): want *mock.Encoder, got %T", enc)
	}
}

func TestBuildEncoderOpenAI(t *testing.T) {
	enc, err := buildEncoder(config.ProviderEntry{Name: "openai", APIKey: "sk-test", Model: "text-embedding-3-small"})
	if err != nil {
		t.Fatalf("buildEncoder: %v", err)
	}
	if _, ok := enc.(*openai.Encoder); !ok {
		t.Errorf("buildEncoder(openai): want *openai.Encoder, got %T", enc)
	}
}

func TestBuildEncoderUnsupported(t *testing.T) {
	if _, err := buildEncoder(config.ProviderEntry{Name: "not-a-real-provider"}); err == nil {
		t.Error("buildEncoder: want error for unsupported provider, got nil")
	}
}

func TestBuildPredictorMock(t *testing.T) {
	pred, err := buildPredictor(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("buildPredictor: %v", err)
	}
	if _, ok := pred.(*predictormock.Predictor); !ok {
		t.Errorf("buildPredictor(mock): want *mock.Predictor, got %T", pred)
	}
}

func TestBuildPredictorAnyLLMBackend(t *testing.T) {
	pred, err := buildPredictor(config.ProviderEntry{Name: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("buildPredictor: %v", err)
	}
	if _, ok := pred.(*llmpredict.Predictor); !ok {
		t.Errorf("buildPredictor(openai): want *llmpredict.Predictor, got %T", pred)
	}
}
