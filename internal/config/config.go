package config

import (
    "fmt"
    "os"
    "strconv"

    yaml "gopkg.in/yaml.v3"
)

// Config holds the server and pipeline settings. Values come from an
// optional YAML file (CONFIG_PATH or ./config.yaml), with environment
// variables taking precedence for deployment overrides.
type Config struct {
    Port         string `yaml:"port"`
    DatabaseURL  string `yaml:"database_url"`
    RedisURL     string `yaml:"redis_url"`
    ModelURL     string `yaml:"model_url"`
    AllowOrigins string `yaml:"allow_origins"`
    Migrate      bool   `yaml:"migrate"`

    RateRPS   float64 `yaml:"rate_rps"`
    RateBurst int     `yaml:"rate_burst"`

    Matcher struct {
        RadiusM   float64 `yaml:"radius_m"`
        SampleCap int     `yaml:"sample_cap"`
    } `yaml:"matcher"`

    History struct {
        DefaultHours  int `yaml:"default_hours"`
        BucketMinutes int `yaml:"bucket_minutes"`
        MaxBuckets    int `yaml:"max_buckets"`
    } `yaml:"history"`

    Viewport struct {
        MaxSensors int `yaml:"max_sensors"`
    } `yaml:"viewport"`
}

// Default returns the built-in settings: 150m matching radius, 50-point
// sample cap, 24h history window in 10-minute buckets.
func Default() Config {
    var c Config
    c.Port = "8080"
    c.Migrate = true
    c.RateRPS = 0 // disabled unless set
    c.RateBurst = 0
    c.Matcher.RadiusM = 150
    c.Matcher.SampleCap = 50
    c.History.DefaultHours = 24
    c.History.BucketMinutes = 10
    c.History.MaxBuckets = 750
    c.Viewport.MaxSensors = 200
    return c
}

// Load reads the YAML file when present and applies env overrides.
func Load() (Config, error) {
    c := Default()
    path := os.Getenv("CONFIG_PATH")
    if path == "" {
        path = "config.yaml"
    }
    if b, err := os.ReadFile(path); err == nil {
        if err := yaml.Unmarshal(b, &c); err != nil {
            return c, fmt.Errorf("parse %s: %w", path, err)
        }
    } else if os.Getenv("CONFIG_PATH") != "" {
        // an explicitly named file must exist
        return c, fmt.Errorf("read config: %w", err)
    }
    applyEnv(&c)
    if err := c.validate(); err != nil {
        return c, err
    }
    return c, nil
}

func applyEnv(c *Config) {
    if v := os.Getenv("PORT"); v != "" { c.Port = v }
    if v := os.Getenv("DATABASE_URL"); v != "" { c.DatabaseURL = v }
    if v := os.Getenv("REDIS_URL"); v != "" { c.RedisURL = v }
    if v := os.Getenv("MODEL_URL"); v != "" { c.ModelURL = v }
    if v := os.Getenv("ALLOW_ORIGINS"); v != "" { c.AllowOrigins = v }
    if v := os.Getenv("DB_MIGRATE"); v != "" { c.Migrate = v != "false" }
    if v := os.Getenv("RATE_RPS"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil { c.RateRPS = f }
    }
    if v := os.Getenv("RATE_BURST"); v != "" {
        if n, err := strconv.Atoi(v); err == nil { c.RateBurst = n }
    }
    if v := os.Getenv("MATCH_RADIUS_M"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil { c.Matcher.RadiusM = f }
    }
}

func (c Config) validate() error {
    if c.Matcher.RadiusM <= 0 {
        return fmt.Errorf("matcher.radius_m must be > 0, got %v", c.Matcher.RadiusM)
    }
    if c.Matcher.SampleCap < 2 {
        return fmt.Errorf("matcher.sample_cap must be >= 2, got %d", c.Matcher.SampleCap)
    }
    if c.History.BucketMinutes <= 0 {
        return fmt.Errorf("history.bucket_minutes must be > 0, got %d", c.History.BucketMinutes)
    }
    return nil
}
