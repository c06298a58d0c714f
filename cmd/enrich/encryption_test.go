package main

import (
	"reflect"
	"testing"

	"github.com/glyphmatch/enrich/internal/config"
)

func TestParamsConfigConversion(t *testing.T) {
	cfg := config.EncryptionConfig{
		LogN:            13,
		LogQ:            []int{60, 30, 30, 30, 60},
		LogP:            []int{61},
		LogDefaultScale: 30,
	}
	got := paramsConfig(cfg)
	if got.LogN != cfg.LogN {
		t.Errorf("LogN: want %d, got %d", cfg.LogN, got.LogN)
	}
	if !reflect.DeepEqual(got.LogQ, cfg.LogQ) {
		t.Errorf("LogQ: want %v, got %v", cfg.LogQ, got.LogQ)
	}
	if !reflect.DeepEqual(got.LogP, cfg.LogP) {
		t.Errorf("LogP: want %v, got %v", cfg.LogP, got.LogP)
	}
	if got.LogDefaultScale != cfg.LogDefaultScale {
		t.Errorf("LogDefaultScale: want %d, got %d", cfg.LogDefaultScale, got.LogDefaultScale)
	}
}

func TestParamsConfigZeroValueFallsBackToDefaults(t *testing.T) {
	got := paramsConfig(config.EncryptionConfig{})
	if got.LogN != 0 {
		t.Errorf("LogN: want 0 (signals henc.DefaultParamsConfig fallback), got %d", got.LogN)
	}
}
