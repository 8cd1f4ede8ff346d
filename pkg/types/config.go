// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// Workers is the number of goroutines used to process sentences.
	// Zero or negative falls back to a single worker.
	Workers int `json:"workers" yaml:"workers"`

	// UseNER enables the ONNX token-classification backend for entity
	// extraction. When false the pattern-based extractor is used.
	UseNER bool `json:"use_ner" yaml:"use_ner"`

	// ModelDir is the directory NER models are downloaded to.
	ModelDir string `json:"model_dir" yaml:"model_dir"`

	// MinConfidence drops extracted relations scored below this value.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// CacheConfig holds settings for the extraction result cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database. Empty disables caching.
	Dir string `json:"dir" yaml:"dir"`

	// MaxEntries bounds the cache size; least recently used entries are
	// evicted first. Zero uses the default (100).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// ServerConfig holds settings for the REST API server.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// UIConfig holds terminal presentation settings.
type UIConfig struct {
	// NoColor disables ANSI styling regardless of TTY detection.
	NoColor bool `json:"no_color" yaml:"no_color"`
}

// Config is the top-level configuration resolved from flags, environment,
// and the llamagraph.yaml config file.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	UI         UIConfig         `json:"ui" yaml:"ui"`
}
