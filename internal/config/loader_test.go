package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glyphmatch/enrich/internal/config"
)

func TestLoadReadsFileFromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "enrich.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Role != config.RoleServer {
		t.Errorf("server.role: got %q, want %q", cfg.Server.Role, config.RoleServer)
	}
}

func TestLoadMissingFileHintsNotExist(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected error wrapping os.ErrNotExist, got: %v", err)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := sampleYAML + "\nbogus_top_level_field: true\n"
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidateRequiresPeerDatasetInPlaintextMode(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  role: server
  port: 9000
dataset:
  path: ./testdata/g1.json
  prefix: g1
  output_path: ./out/merged.json
enrichment:
  sigma: 0.95
  delta: 0.05
  k: 5
  epsilon: 0.01
  security_mode: false
providers:
  embeddings:
    name: mock
  predictor:
    name: mock
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing peer dataset in plaintext mode, got nil")
	}
	if !strings.Contains(err.Error(), "peer_path") || !strings.Contains(err.Error(), "peer_prefix") {
		t.Errorf("error should mention both peer_path and peer_prefix, got: %v", err)
	}
}

func TestValidateAcceptsPlaintextModeWithPeerDataset(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  role: server
  port: 9000
dataset:
  path: ./testdata/g1.json
  prefix: g1
  output_path: ./out/merged.json
  peer_path: ./testdata/g2.json
  peer_prefix: g2
enrichment:
  sigma: 0.95
  delta: 0.05
  k: 5
  epsilon: 0.01
  security_mode: false
providers:
  embeddings:
    name: mock
  predictor:
    name: mock
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.PeerPrefix != "g2" {
		t.Errorf("dataset.peer_prefix: got %q, want g2", cfg.Dataset.PeerPrefix)
	}
}
