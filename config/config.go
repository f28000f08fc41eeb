package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Waitlist   WaitlistSettings `yaml:"waitlist"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Tables     []TableSeed      `yaml:"tables"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// WaitlistSettings are the operational knobs of the waitlist engine. They are
// loaded once at startup and reread by the background jobs on every run.
type WaitlistSettings struct {
	MaxWaitMinutes         int            `yaml:"max_wait_minutes"`
	CallTimeoutMinutes     int            `yaml:"call_timeout_minutes"`
	FinishedRetentionHours int            `yaml:"finished_retention_hours"`
	PriorityWeights        map[string]int `yaml:"priority_weights"`
}

// MaxWait returns the expiry age for waiting entries.
func (s WaitlistSettings) MaxWait() time.Duration {
	return time.Duration(s.MaxWaitMinutes) * time.Minute
}

// CallTimeout returns the confirmation window for called entries.
func (s WaitlistSettings) CallTimeout() time.Duration {
	return time.Duration(s.CallTimeoutMinutes) * time.Minute
}

// FinishedRetention returns the hard-delete window for terminal entries.
func (s WaitlistSettings) FinishedRetention() time.Duration {
	return time.Duration(s.FinishedRetentionHours) * time.Hour
}

// WeightFor resolves a priority name to its ordering weight. Unknown names
// map to weight 0 so a stale tier name never breaks ordering.
func (s WaitlistSettings) WeightFor(priority string) int {
	return s.PriorityWeights[priority]
}

// KnownPriority reports whether the priority name is configured.
func (s WaitlistSettings) KnownPriority(priority string) bool {
	_, ok := s.PriorityWeights[priority]
	return ok
}

// SchedulerConfig controls the two background jobs.
type SchedulerConfig struct {
	Enabled           bool          `yaml:"enabled"`
	SweepIntervalMins int           `yaml:"sweep_interval_minutes"`
	AggregateHour     int           `yaml:"aggregate_hour"`
	AggregateMinute   int           `yaml:"aggregate_minute"`
	SweepInterval     time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// TableSeed describes one physical table to provision at startup.
type TableSeed struct {
	Number   string `yaml:"number"`
	Capacity int    `yaml:"capacity"`
	Location string `yaml:"location"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	for i, seed := range cfg.Tables {
		if seed.Number == "" || seed.Capacity <= 0 {
			return nil, fmt.Errorf("tables[%d]: number and a positive capacity are required", i)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 30
	}

	if c.Waitlist.MaxWaitMinutes <= 0 {
		c.Waitlist.MaxWaitMinutes = 30
	}
	if c.Waitlist.CallTimeoutMinutes <= 0 {
		c.Waitlist.CallTimeoutMinutes = 15
	}
	if c.Waitlist.FinishedRetentionHours <= 0 {
		c.Waitlist.FinishedRetentionHours = 48
	}
	if len(c.Waitlist.PriorityWeights) == 0 {
		c.Waitlist.PriorityWeights = map[string]int{"normal": 0, "vip": 10}
	}

	if c.Scheduler.SweepIntervalMins <= 0 {
		c.Scheduler.SweepIntervalMins = 15
	}
	c.Scheduler.SweepInterval = time.Duration(c.Scheduler.SweepIntervalMins) * time.Minute
	if c.Scheduler.AggregateHour < 0 || c.Scheduler.AggregateHour > 23 {
		c.Scheduler.AggregateHour = 0
	}
	if c.Scheduler.AggregateMinute < 0 || c.Scheduler.AggregateMinute > 59 {
		c.Scheduler.AggregateMinute = 30
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
}
