// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Analysis() AnalysisConfig
	LLM() LLMConfig
	Output() OutputConfig
	SetOutputConfig(oc OutputConfig)

	// Engine Setters
	SetEngineComponentConcurrency(int)

	// Analysis Setters
	SetAnalysisFocus(string)

	// LLM Setters
	SetLLMRefinementEnabled(bool)
}

// Config holds the entire application configuration. It uses private fields
// to enforce access through the Interface's getter methods.
type Config struct {
	logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	llm      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	// output gets its marching orders from CLI flags, not the config file.
	output OutputConfig `mapstructure:"-" yaml:"-"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.logger }
func (c *Config) Engine() EngineConfig     { return c.engine }
func (c *Config) Analysis() AnalysisConfig { return c.analysis }
func (c *Config) LLM() LLMConfig           { return c.llm }
func (c *Config) Output() OutputConfig     { return c.output }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetOutputConfig(oc OutputConfig)     { c.output = oc }
func (c *Config) SetEngineComponentConcurrency(n int) { c.engine.ComponentConcurrency = n }
func (c *Config) SetAnalysisFocus(f string)           { c.analysis.Focus = f }
func (c *Config) SetLLMRefinementEnabled(b bool)      { c.llm.RefinementEnabled = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EngineConfig configures the analysis pipeline.
type EngineConfig struct {
	// ComponentConcurrency caps how many analysis components run at once
	// over a parsed tree. Zero or negative means unbounded.
	ComponentConcurrency int `mapstructure:"component_concurrency" yaml:"component_concurrency"`
	// AnalysisTimeout bounds one full pipeline invocation.
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout" yaml:"analysis_timeout"`
}

// AnalysisConfig tunes the detectors. Thresholds mirror the documented
// detector semantics; changing them changes what gets reported, not how.
type AnalysisConfig struct {
	Focus string `mapstructure:"focus" yaml:"focus"`
	// LongFunctionLines is the body-length threshold for the long-function
	// anti-pattern.
	LongFunctionLines int `mapstructure:"long_function_lines" yaml:"long_function_lines"`
	// DeepNestingDepth is the maximum tolerated if-nesting depth.
	DeepNestingDepth int `mapstructure:"deep_nesting_depth" yaml:"deep_nesting_depth"`
	// DuplicateSimilarity is the near-duplicate similarity threshold.
	DuplicateSimilarity float64 `mapstructure:"duplicate_similarity" yaml:"duplicate_similarity"`
	// DuplicateLengthSkew is the maximum relative length difference for
	// which similarity is even computed.
	DuplicateLengthSkew float64 `mapstructure:"duplicate_length_skew" yaml:"duplicate_length_skew"`
}

// LLMConfig configures the optional generative-model collaborator used for
// taint-path refinement.
type LLMConfig struct {
	RefinementEnabled bool          `mapstructure:"refinement_enabled" yaml:"refinement_enabled"`
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestsPerSecond throttles outbound calls. Zero disables the limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// ExcerptLimit caps how many source characters accompany a refinement
	// prompt.
	ExcerptLimit int `mapstructure:"excerpt_limit" yaml:"excerpt_limit"`
}

// OutputConfig holds settings populated from CLI flags for a specific run.
type OutputConfig struct {
	Path   string
	Format string
	Pretty bool
}

// fileConfig mirrors Config with exported fields so viper can populate it.
// Config itself keeps private fields to force access through the Interface.
type fileConfig struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

func (fc fileConfig) toConfig() *Config {
	return &Config{
		logger:   fc.Logger,
		engine:   fc.Engine,
		analysis: fc.Analysis,
		llm:      fc.LLM,
	}
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return fc.toConfig()
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scriptlens")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.component_concurrency", 6)
	v.SetDefault("engine.analysis_timeout", "2m")

	// -- Analysis --
	v.SetDefault("analysis.focus", "all")
	v.SetDefault("analysis.long_function_lines", 50)
	v.SetDefault("analysis.deep_nesting_depth", 3)
	v.SetDefault("analysis.duplicate_similarity", 0.85)
	v.SetDefault("analysis.duplicate_length_skew", 0.30)

	// -- LLM --
	v.SetDefault("llm.refinement_enabled", false)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "30s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.requests_per_second", 1.0)
	v.SetDefault("llm.excerpt_limit", 4000)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data
	v.BindEnv("llm.api_key", "SCRIPTLENS_LLM_API_KEY")

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg := *fc.toConfig()

	// Manually load the key if Unmarshal didn't pick it up
	if cfg.llm.RefinementEnabled && cfg.llm.APIKey == "" {
		cfg.llm.APIKey = os.Getenv("SCRIPTLENS_LLM_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.engine.AnalysisTimeout <= 0 {
		return fmt.Errorf("engine.analysis_timeout must be a positive duration")
	}
	if c.analysis.DuplicateSimilarity < 0.0 || c.analysis.DuplicateSimilarity > 1.0 {
		return fmt.Errorf("analysis.duplicate_similarity must be between 0.0 and 1.0")
	}
	if c.analysis.DuplicateLengthSkew < 0.0 || c.analysis.DuplicateLengthSkew > 1.0 {
		return fmt.Errorf("analysis.duplicate_length_skew must be between 0.0 and 1.0")
	}
	if err := c.llm.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the LLM collaborator settings.
func (l *LLMConfig) Validate() error {
	if !l.RefinementEnabled {
		return nil
	}
	if l.Model == "" {
		return fmt.Errorf("llm.model is required when refinement is enabled")
	}
	if l.APIKey == "" {
		return fmt.Errorf("LLM API key is required but not found. Ensure SCRIPTLENS_LLM_API_KEY is set")
	}
	if l.APITimeout <= 0 {
		return fmt.Errorf("llm.api_timeout must be a positive duration")
	}
	return nil
}
