package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/gorhill/cronexpr"
	"gopkg.in/yaml.v3"
)

// MinCursorSecretLength is the shortest accepted cursor signing secret.
const MinCursorSecretLength = 16

// Config holds the jobmatch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Suggest   SuggestConfig   `yaml:"suggest"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds service-to-service API key settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// FieldWeights holds per-field ranking weights.
type FieldWeights struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Company     float64 `yaml:"company"`
}

// SearchConfig holds indexing, ranking and pagination settings.
type SearchConfig struct {
	DefaultPageSize int          `yaml:"default_page_size"`
	MaxPageSize     int          `yaml:"max_page_size"`
	DefaultLanguage string       `yaml:"default_language"`
	Weights         FieldWeights `yaml:"weights"`
	// FuzzyDamping scales fuzzy scores; FuzzyDamping * max weight must stay below min weight.
	FuzzyDamping   float64 `yaml:"fuzzy_damping"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	Epsilon        float64 `yaml:"epsilon"`
	// MaxCandidates caps the number of documents scored per query (0 = all).
	MaxCandidates         int    `yaml:"max_candidates"`
	CursorSecret          string `yaml:"cursor_secret"`
	TombstoneRetentionSec int    `yaml:"tombstone_retention_sec"`
	PopularityHalfLifeHrs int    `yaml:"popularity_half_life_hours"`
}

// CacheConfig holds read-through cache settings.
type CacheConfig struct {
	Backend             string `yaml:"backend"` // memory, redis (default: memory)
	SearchTTLSec        int    `yaml:"search_ttl_sec"`
	SuggestTTLSec       int    `yaml:"suggest_ttl_sec"`
	TrendingTTLSec      int    `yaml:"trending_ttl_sec"`
	StaleGraceSec       int    `yaml:"stale_grace_sec"`
	FillTimeoutMs       int    `yaml:"fill_timeout_ms"`
	LoadTimeoutMs       int    `yaml:"load_timeout_ms"`
	Shards              int    `yaml:"shards"`
	MaxEntriesPerShard  int    `yaml:"max_entries_per_shard"`
	JanitorIntervalSec  int    `yaml:"janitor_interval_sec"`
	InvalidationChannel string `yaml:"invalidation_channel"`
}

// SuggestConfig holds autocomplete settings.
type SuggestConfig struct {
	DefaultLimit     int     `yaml:"default_limit"`
	MaxLimit         int     `yaml:"max_limit"`
	Threshold        float64 `yaml:"threshold"`
	PrefixBoost      float64 `yaml:"prefix_boost"`
	MinDescriptionDF int     `yaml:"min_description_df"`
}

// RecommendWeights holds the hybrid blend weights.
type RecommendWeights struct {
	Content       float64 `yaml:"content"`
	Collaborative float64 `yaml:"collaborative"`
	Popularity    float64 `yaml:"popularity"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	Weights            RecommendWeights `yaml:"weights"`
	Neighbors          int              `yaml:"neighbors"`
	HalfLifeHours      int              `yaml:"half_life_hours"`
	MinScore           float64          `yaml:"min_score"`
	DefaultLimit       int              `yaml:"default_limit"`
	MaxLimit           int              `yaml:"max_limit"`
	TTLSec             int              `yaml:"ttl_sec"`
	RetentionSec       int              `yaml:"retention_sec"`
	OnDemandTimeoutMs  int              `yaml:"on_demand_timeout_ms"`
	BatchSchedule      string           `yaml:"batch_schedule"`
	BatchBudgetSec     int              `yaml:"batch_budget_sec"`
	BatchMaxUsers      int              `yaml:"batch_max_users"`
	BatchConcurrency   int              `yaml:"batch_concurrency"`
	InteractionHistory int              `yaml:"interaction_history"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyServerDefaults()
	c.applySearchDefaults()
	c.applyCacheDefaults()
	c.applyRecommendDefaults()
}

func (c *Config) applyServerDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.DefaultPageSize <= 0 {
		s.DefaultPageSize = 20
	}
	if s.MaxPageSize <= 0 {
		s.MaxPageSize = 100
	}
	if s.DefaultLanguage == "" {
		s.DefaultLanguage = "en"
	}
	if s.Weights == (FieldWeights{}) {
		s.Weights = FieldWeights{Title: 1.0, Description: 0.6, Company: 0.3}
	}
	if s.FuzzyDamping <= 0 {
		s.FuzzyDamping = 0.25
	}
	if s.FuzzyThreshold <= 0 {
		s.FuzzyThreshold = 0.3
	}
	if s.Epsilon <= 0 {
		s.Epsilon = 0.01
	}
	if s.TombstoneRetentionSec <= 0 {
		s.TombstoneRetentionSec = 24 * 3600
	}
	if s.PopularityHalfLifeHrs <= 0 {
		s.PopularityHalfLifeHrs = 7 * 24
	}

	g := &c.Suggest
	if g.DefaultLimit <= 0 {
		g.DefaultLimit = 10
	}
	if g.MaxLimit <= 0 {
		g.MaxLimit = 50
	}
	if g.Threshold <= 0 {
		g.Threshold = 0.3
	}
	if g.PrefixBoost <= 0 {
		g.PrefixBoost = 0.2
	}
	if g.MinDescriptionDF <= 0 {
		g.MinDescriptionDF = 2
	}
}

func (c *Config) applyCacheDefaults() {
	k := &c.Cache
	if k.Backend == "" {
		k.Backend = "memory"
	}
	if k.SearchTTLSec <= 0 {
		k.SearchTTLSec = 60
	}
	if k.SuggestTTLSec <= 0 {
		k.SuggestTTLSec = 300
	}
	if k.TrendingTTLSec <= 0 {
		k.TrendingTTLSec = 300
	}
	if k.FillTimeoutMs <= 0 {
		k.FillTimeoutMs = 200
	}
	if k.LoadTimeoutMs <= 0 {
		k.LoadTimeoutMs = 2000
	}
	if k.Shards <= 0 {
		k.Shards = 32
	}
	if k.MaxEntriesPerShard <= 0 {
		k.MaxEntriesPerShard = 4096
	}
	if k.JanitorIntervalSec <= 0 {
		k.JanitorIntervalSec = 60
	}
	if k.InvalidationChannel == "" {
		k.InvalidationChannel = "jobmatch:cache:invalidations"
	}
}

func (c *Config) applyRecommendDefaults() {
	r := &c.Recommend
	if r.Weights == (RecommendWeights{}) {
		r.Weights = RecommendWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}
	}
	if r.Neighbors <= 0 {
		r.Neighbors = 20
	}
	if r.HalfLifeHours <= 0 {
		r.HalfLifeHours = 7 * 24
	}
	if r.MinScore <= 0 {
		r.MinScore = 0.1
	}
	if r.DefaultLimit <= 0 {
		r.DefaultLimit = 10
	}
	if r.MaxLimit <= 0 {
		r.MaxLimit = 50
	}
	if r.TTLSec <= 0 {
		r.TTLSec = 6 * 3600
	}
	if r.RetentionSec <= 0 {
		r.RetentionSec = 7 * 24 * 3600
	}
	if r.OnDemandTimeoutMs <= 0 {
		r.OnDemandTimeoutMs = 300
	}
	if r.BatchSchedule == "" {
		r.BatchSchedule = "0 */6 * * *"
	}
	if r.BatchBudgetSec <= 0 {
		r.BatchBudgetSec = 15 * 60
	}
	if r.BatchMaxUsers <= 0 {
		r.BatchMaxUsers = 100000
	}
	if r.BatchConcurrency <= 0 {
		r.BatchConcurrency = 4
	}
	if r.InteractionHistory <= 0 {
		r.InteractionHistory = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if err := c.Search.validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory", "redis":
		// ok
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.Suggest.Threshold > 1 {
		return fmt.Errorf("suggest.threshold must be in (0, 1], got %g", c.Suggest.Threshold)
	}
	if c.Suggest.DefaultLimit > c.Suggest.MaxLimit {
		return fmt.Errorf("suggest.default_limit %d exceeds max_limit %d", c.Suggest.DefaultLimit, c.Suggest.MaxLimit)
	}
	return c.Recommend.validate()
}

func (s *SearchConfig) validate() error {
	if len(s.CursorSecret) < MinCursorSecretLength {
		return fmt.Errorf("search.cursor_secret must be at least %d bytes", MinCursorSecretLength)
	}
	if s.DefaultPageSize > s.MaxPageSize {
		return fmt.Errorf("search.default_page_size %d exceeds max_page_size %d", s.DefaultPageSize, s.MaxPageSize)
	}
	w := s.Weights
	if w.Title <= 0 || w.Description <= 0 || w.Company <= 0 {
		return fmt.Errorf("search.weights must all be positive, got %+v", w)
	}
	minW := min(w.Title, w.Description, w.Company)
	maxW := max(w.Title, w.Description, w.Company)
	if s.FuzzyDamping*maxW >= minW {
		return fmt.Errorf(
			"search.fuzzy_damping %g too large: damping * max weight (%g) must be below min weight (%g)",
			s.FuzzyDamping, s.FuzzyDamping*maxW, minW,
		)
	}
	if s.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be in (0, 1], got %g", s.FuzzyThreshold)
	}
	return nil
}

func (r *RecommendConfig) validate() error {
	w := r.Weights
	if w.Content < 0 || w.Collaborative < 0 || w.Popularity < 0 {
		return fmt.Errorf("recommend.weights must be non-negative, got %+v", w)
	}
	if w.Content+w.Collaborative+w.Popularity <= 0 {
		return fmt.Errorf("recommend.weights must not all be zero")
	}
	if r.MinScore > 1 {
		return fmt.Errorf("recommend.min_score must be in [0, 1], got %g", r.MinScore)
	}
	if r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d exceeds max_limit %d", r.DefaultLimit, r.MaxLimit)
	}
	if _, err := cronexpr.Parse(r.BatchSchedule); err != nil {
		return fmt.Errorf("recommend.batch_schedule %q: %w", r.BatchSchedule, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
