package main

import (
	"github.com/glyphmatch/enrich/internal/config"
	"github.com/glyphmatch/enrich/internal/henc"
)

// paramsConfig converts the YAML-facing [config.EncryptionConfig] into
// [henc.ParamsConfig]; a zero LogN lets [henc.NewContext]/[henc.LoadPublicContext]
// fall back to [henc.DefaultParamsConfig].
func paramsConfig(cfg config.EncryptionConfig) henc.ParamsConfig {
	return henc.ParamsConfig{
		LogN:            cfg.LogN,
		LogQ:            cfg.LogQ,
		LogP:            cfg.LogP,
		LogDefaultScale: cfg.LogDefaultScale,
	}
}
