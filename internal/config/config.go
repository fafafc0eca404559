// Package config loads readgate configuration from defaults, an optional
// YAML file and READGATE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/logging"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/source"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "READGATE"

// Config is the full configuration tree.
type Config struct {
	Gate    GateConfig     `mapstructure:"gate" yaml:"gate"`
	Policy  PolicyConfig   `mapstructure:"policy" yaml:"policy"`
	LLM     llm.Config     `mapstructure:"llm" yaml:"llm"`
	Store   StoreConfig    `mapstructure:"store" yaml:"store"`
	Server  ServerConfig   `mapstructure:"server" yaml:"server"`
	Preview PreviewConfig  `mapstructure:"preview" yaml:"preview"`
	Client  ClientConfig   `mapstructure:"client" yaml:"client"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
}

// GateConfig bounds the workflow's asynchronous stages.
type GateConfig struct {
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" yaml:"generation_timeout"`
	ValidationTimeout time.Duration `mapstructure:"validation_timeout" yaml:"validation_timeout"`
	MaxChainDepth     int           `mapstructure:"max_chain_depth" yaml:"max_chain_depth"`
	HopTimeout        time.Duration `mapstructure:"hop_timeout" yaml:"hop_timeout"`
	ResolveTimeout    time.Duration `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
}

// Resolver returns the source resolver bounds.
func (g GateConfig) Resolver() source.Config {
	return source.Config{MaxChainDepth: g.MaxChainDepth, HopTimeout: g.HopTimeout, ResolveTimeout: g.ResolveTimeout}
}

// PolicyConfig mirrors policy.Thresholds in a flat, file-friendly shape.
type PolicyConfig struct {
	PostFloor      int `mapstructure:"post_floor" yaml:"post_floor"`
	ShareFloor     int `mapstructure:"share_floor" yaml:"share_floor"`
	CommentFloor   int `mapstructure:"comment_floor" yaml:"comment_floor"`
	UserOnlyMid    int `mapstructure:"user_only_mid" yaml:"user_only_mid"`
	MixedFrom      int `mapstructure:"mixed_from" yaml:"mixed_from"`
	UserOnlyFrom   int `mapstructure:"user_only_from" yaml:"user_only_from"`
	IntentMinWords int `mapstructure:"intent_min_words" yaml:"intent_min_words"`
}

// Thresholds converts to the policy package's type.
func (p PolicyConfig) Thresholds() policy.Thresholds {
	return policy.Thresholds{
		UserOnlyFloor: map[source.Intent]int{
			source.IntentPost:    p.PostFloor,
			source.IntentShare:   p.ShareFloor,
			source.IntentComment: p.CommentFloor,
		},
		UserOnlyMid:    p.UserOnlyMid,
		MixedFrom:      p.MixedFrom,
		UserOnlyFrom:   p.UserOnlyFrom,
		IntentMinWords: p.IntentMinWords,
	}
}

type StoreConfig struct {
	// Path is the SQLite file; empty means store.DefaultDBPath.
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures `readgate serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	JWTSecret       string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	QARatePerSecond float64       `mapstructure:"qa_rate_per_second" yaml:"qa_rate_per_second"`
	QABurst         int           `mapstructure:"qa_burst" yaml:"qa_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// PreviewConfig configures link preview fetching and caching.
type PreviewConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes       int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	RatePerSecond  float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst          int           `mapstructure:"burst" yaml:"burst"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	RedisAddr      string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	MaxContentRune int           `mapstructure:"max_content_runes" yaml:"max_content_runes"`
}

// ClientConfig points the interactive gate at a running edge service. An
// empty URL runs every collaborator in-process.
type ClientConfig struct {
	EdgeURL string        `mapstructure:"edge_url" yaml:"edge_url"`
	Token   string        `mapstructure:"token" yaml:"token"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	th := policy.DefaultThresholds()
	rc := source.DefaultConfig()
	return Config{
		Gate: GateConfig{
			GenerationTimeout: 30 * time.Second,
			ValidationTimeout: 15 * time.Second,
			MaxChainDepth:     rc.MaxChainDepth,
			HopTimeout:        rc.HopTimeout,
			ResolveTimeout:    rc.ResolveTimeout,
		},
		Policy: PolicyConfig{
			PostFloor:      th.UserOnlyFloor[source.IntentPost],
			ShareFloor:     th.UserOnlyFloor[source.IntentShare],
			CommentFloor:   th.UserOnlyFloor[source.IntentComment],
			UserOnlyMid:    th.UserOnlyMid,
			MixedFrom:      th.MixedFrom,
			UserOnlyFrom:   th.UserOnlyFrom,
			IntentMinWords: th.IntentMinWords,
		},
		LLM: llm.DefaultConfig(),
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			QARatePerSecond: 1,
			QABurst:         5,
			ShutdownTimeout: 10 * time.Second,
		},
		Preview: PreviewConfig{
			Timeout:        5 * time.Second,
			MaxBytes:       2 << 20,
			RatePerSecond:  5,
			Burst:          10,
			UserAgent:      "readgate-preview/1.0",
			CacheTTL:       6 * time.Hour,
			MaxContentRune: 20000,
		},
		Client: ClientConfig{Timeout: 20 * time.Second},
		Log:    logging.Config{Level: "info"},
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Gate.GenerationTimeout <= 0 || c.Gate.ValidationTimeout <= 0 {
		return errors.New("gate timeouts must be positive")
	}
	if c.Gate.MaxChainDepth < 1 {
		return errors.New("gate.max_chain_depth must be at least 1")
	}
	if err := c.Policy.Thresholds().Validate(); err != nil {
		return err
	}
	if c.Preview.MaxBytes <= 0 {
		return errors.New("preview.max_bytes must be positive")
	}
	return nil
}

// Load reads configuration. path may be empty, in which case the default
// location is tried and silently skipped when absent.
func Load(path string) (Config, error) {
	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		if p := DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/readgate/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "readgate", "config.yaml")
}

// WriteFile writes cfg as YAML, refusing to overwrite unless force is set.
func WriteFile(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// setDefaults registers every leaf of def with viper so that AutomaticEnv
// can override keys that never appear in a file.
func setDefaults(v *viper.Viper, def Config) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	walk("", tree, func(key string, val any) { v.SetDefault(key, val) })
	return nil
}

func walk(prefix string, node map[string]any, fn func(string, any)) {
	for k, val := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := val.(map[string]any); ok {
			walk(key, child, fn)
			continue
		}
		fn(key, val)
	}
}

// Redacted returns a copy of c with secrets masked, for display.
func Redacted(c Config) Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&c.LLM.Anthropic.APIKey)
	mask(&c.LLM.OpenAI.APIKey)
	mask(&c.LLM.Gemini.APIKey)
	mask(&c.LLM.OpenRouter.APIKey)
	mask(&c.Server.JWTSecret)
	mask(&c.Client.Token)
	return c
}
