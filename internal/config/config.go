// Package config provides the configuration schema, loader, and validator
// for an enrichment server or client process.
package config

// Config is the root configuration structure for an enrichment run. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Encryption EncryptionConfig `yaml:"encryption"`
}

// Role distinguishes the two peers of an enrichment run.
type Role string

const (
	// RoleServer drives the match search (iterates its own vertices against
	// the peer's) and performs the ordered merge phase.
	RoleServer Role = "server"

	// RoleClient runs the oracle: it decrypts and answers similarity
	// requests, and serves lineage/enrichment requests against its own
	// graph.
	RoleClient Role = "client"
)

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	return r == RoleServer || r == RoleClient
}

// ServerConfig holds network and logging settings for one peer process.
type ServerConfig struct {
	// Role selects whether this process drives the match search (server)
	// or answers oracle requests (client).
	Role Role `yaml:"role"`

	// Host is the address the peer connection is dialed to (client role) or
	// listened on (server role, when applicable to the transport in use).
	Host string `yaml:"host"`

	// Port is the primary connection's TCP port. The oracle connection
	// listens on Port+10, mirroring the reference implementation's fixed
	// port offset between the two channels.
	Port int `yaml:"port"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn",
	// "error".
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the address an HTTP server exposing the Prometheus
	// "/metrics" endpoint listens on, e.g. ":9090". Leave empty to disable
	// metrics export entirely.
	MetricsAddr string `yaml:"metrics_addr"`
}

// OraclePort returns the port the oracle connection listens on or dials.
func (s ServerConfig) OraclePort() int {
	return s.Port + 10
}

// LogLevel is the configured slog verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognized log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// DatasetConfig names the input graph file and the URI prefix its vertices
// are loaded under.
type DatasetConfig struct {
	// Path is the input dataset JSON file, per [graph.LoadDataset].
	Path string `yaml:"path"`

	// Prefix is the URI namespace this side's vertices are loaded under —
	// "g1" or "g2" in the reference implementation's naming, kept
	// configurable so server and client datasets never collide even when
	// both happen to reuse the same raw node IDs.
	Prefix string `yaml:"prefix"`

	// OutputPath is where the merged graph is written as Cytoscape JSON
	// once enrichment completes.
	OutputPath string `yaml:"output_path"`

	// PeerPath and PeerPrefix name the second graph to load in the same
	// process. They are only read when enrichment.security_mode is false:
	// the plaintext ground-truth engine compares both graphs directly
	// instead of dialing a peer, so both datasets must already be on disk
	// next to each other.
	PeerPath   string `yaml:"peer_path"`
	PeerPrefix string `yaml:"peer_prefix"`
}

// EnrichmentConfig holds the ParaMatch thresholds and the engine selection.
type EnrichmentConfig struct {
	// Sigma is the vertex-similarity threshold h_v compares against.
	Sigma float64 `yaml:"sigma"`

	// Delta is the minimum accumulated path-similarity score para_match
	// requires for two vertices' neighborhoods to be judged a match.
	Delta float64 `yaml:"delta"`

	// K is the number of top paraphrase paths h_r keeps per vertex.
	K int `yaml:"k"`

	// Epsilon is the tolerance a decrypted, masked similarity value is
	// compared against.
	Epsilon float64 `yaml:"epsilon"`

	// SecurityMode selects the homomorphically encrypted engine
	// (internal/henc) when true, or the plaintext ground-truth engine
	// (internal/plaintext) when false.
	SecurityMode bool `yaml:"security_mode"`
}

// DefaultEnrichmentConfig returns the shipped default thresholds: sigma 0.95
// (spec.md's worked examples), delta 0.05, k 5, epsilon 0.01, security mode
// on. The Python ConfigManager's legacy default of sigma=0.85 is not used
// here but remains a documented alternative for callers that want to match
// older datasets tuned against it.
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		Sigma:        0.95,
		Delta:        0.05,
		K:            5,
		Epsilon:      0.01,
		SecurityMode: true,
	}
}

// ProvidersConfig declares which provider implementation to use for each
// external model call this process needs.
type ProvidersConfig struct {
	Embeddings ProviderEntry `yaml:"embeddings"`
	Predictor  ProviderEntry `yaml:"predictor"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. Name selects the concrete backend; Model selects which model that
// backend should call.
type ProviderEntry struct {
	// Name selects the provider implementation, e.g. "openai", "anthropic",
	// "ollama", "gemini", or "mock".
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, if required.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty
	// to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`
}

// EncryptionConfig overrides the CKKS-like scheme's parameters. A zero LogN
// selects [henc.DefaultParamsConfig]'s values as a whole; the other fields
// are not filled in individually.
type EncryptionConfig struct {
	// LogN is the log2 of the ring degree (poly modulus degree).
	LogN int `yaml:"log_n"`

	// LogQ lists the bit-sizes of the ciphertext modulus primes.
	LogQ []int `yaml:"log_q"`

	// LogP lists the bit-sizes of the auxiliary key-switching modulus
	// primes.
	LogP []int `yaml:"log_p"`

	// LogDefaultScale is the log2 of the default encoding scale.
	LogDefaultScale int `yaml:"log_default_scale"`
}
