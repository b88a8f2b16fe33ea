package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Trust    TrustConfig    `yaml:"trust" mapstructure:"trust"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, none
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig holds search-provider API settings.
type SearchConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// FetchConfig configures page fetching and politeness.
type FetchConfig struct {
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyKB        int    `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	PerDomainDelayMs int    `yaml:"per_domain_delay_ms" mapstructure:"per_domain_delay_ms"`
	CacheTTLMinutes  int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	RespectRobots    bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// TrustConfig configures source classification.
type TrustConfig struct {
	RulesPath string   `yaml:"rules_path" mapstructure:"rules_path"`
	Allowlist []string `yaml:"allowlist" mapstructure:"allowlist"` // non-empty enables strict mode
}

// ResolverConfig configures candidate resolution.
type ResolverConfig struct {
	MaxCandidates   int `yaml:"max_candidates" mapstructure:"max_candidates"`
	RequiredMatches int `yaml:"required_matches" mapstructure:"required_matches"`
}

// ScoringConfig holds the additive fact-scoring weights. Values are
// comparable only within a field; they are never normalized.
type ScoringConfig struct {
	AnchorDomain     int `yaml:"anchor_domain" mapstructure:"anchor_domain"`
	StructuredOrigin int `yaml:"structured_origin" mapstructure:"structured_origin"`
	TierANonAnchor   int `yaml:"tier_a_non_anchor" mapstructure:"tier_a_non_anchor"`
	TierBOrContact   int `yaml:"tier_b_or_contact" mapstructure:"tier_b_or_contact"`
	Corroboration    int `yaml:"corroboration" mapstructure:"corroboration"`
	DirectoryPenalty int `yaml:"directory_penalty" mapstructure:"directory_penalty"`
	ValidatorFloor   int `yaml:"validator_floor" mapstructure:"validator_floor"`
	ReviewMargin     int `yaml:"review_margin" mapstructure:"review_margin"`
}

// PipelineConfig configures source collection.
type PipelineConfig struct {
	MaxConcurrentSources int `yaml:"max_concurrent_sources" mapstructure:"max_concurrent_sources"`
	SourceTimeoutSecs    int `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	MaxSources           int `yaml:"max_sources" mapstructure:"max_sources"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentSubjects int `yaml:"max_concurrent_subjects" mapstructure:"max_concurrent_subjects"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.persona")

	// Environment
	v.SetEnvPrefix("PERSONA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "persona.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.max_body_kb", 1024)
	v.SetDefault("fetch.user_agent", "persona-cli/1.0 (+https://github.com/sells-group/persona-cli)")
	v.SetDefault("fetch.per_domain_delay_ms", 1500)
	v.SetDefault("fetch.cache_ttl_minutes", 30)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("resolver.max_candidates", 5)
	v.SetDefault("resolver.required_matches", 1)
	v.SetDefault("scoring.anchor_domain", 50)
	v.SetDefault("scoring.structured_origin", 30)
	v.SetDefault("scoring.tier_a_non_anchor", 30)
	v.SetDefault("scoring.tier_b_or_contact", 15)
	v.SetDefault("scoring.corroboration", 10)
	v.SetDefault("scoring.directory_penalty", -20)
	v.SetDefault("scoring.validator_floor", -30)
	v.SetDefault("scoring.review_margin", 10)
	v.SetDefault("pipeline.max_concurrent_sources", 4)
	v.SetDefault("pipeline.source_timeout_secs", 30)
	v.SetDefault("pipeline.max_sources", 12)
	v.SetDefault("batch.max_concurrent_subjects", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode. Modes:
// "run", "batch", "serve". Collected problems are reported together so a
// user fixes one config pass, not one error at a time.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Pipeline.MaxConcurrentSources >= 1 && c.Pipeline.MaxConcurrentSources <= 32,
		"pipeline.max_concurrent_sources must be between 1 and 32")
	check(c.Pipeline.SourceTimeoutSecs > 0, "pipeline.source_timeout_secs must be > 0")
	check(c.Scoring.ReviewMargin >= 0, "scoring.review_margin must be >= 0")
	check(c.Resolver.MaxCandidates >= 2, "resolver.max_candidates must be >= 2")

	switch mode {
	case "run":
	case "batch":
		check(c.Batch.MaxConcurrentSubjects >= 1 && c.Batch.MaxConcurrentSubjects <= 16,
			"batch.max_concurrent_subjects must be between 1 and 16")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Server.RequestTimeoutSecs > 0, "server.request_timeout_secs must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
