// Package config loads nyc-events settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables (including those set by a .env file). A missing YAML file is not
// an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/nyc-events/internal/event"
	"github.com/pfrederiksen/nyc-events/internal/rank"
)

const (
	DefaultTimezone     = "America/New_York"
	DefaultDaysAhead    = 7
	DefaultSchedule     = "0 9 * * 0" // Sundays at 09:00
	DefaultLookbackDays = 30
	DefaultConcurrency  = 1
	DefaultTimeout      = 30 * time.Second
	DefaultSMTPServer   = "smtp.gmail.com"
	DefaultSMTPPort     = 587

	ProviderICS         = "ics"
	ProviderAppleScript = "applescript"

	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelConsole  = "console"
)

// FeedConfig is one ICS calendar feed
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CalendarConfig controls conflict filtering
type CalendarConfig struct {
	Enabled      bool         `yaml:"enabled"`
	Provider     string       `yaml:"provider"`
	Names        []string     `yaml:"names"` // macOS calendar names for the applescript provider
	Feeds        []FeedConfig `yaml:"feeds"`
	LookbackDays int          `yaml:"lookback_days"`
}

// ScraperConfig controls page fetching
type ScraperConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	Browser     bool          `yaml:"browser"`
	Sources     []string      `yaml:"sources"`
}

// NotifyConfig selects the delivery channel. Empty picks the first channel
// with credentials, falling back to the console.
type NotifyConfig struct {
	Channel string `yaml:"channel"`
}

// SMTPConfig holds email delivery settings
type SMTPConfig struct {
	Server    string `yaml:"server"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

// Configured reports whether credentials are present
func (s SMTPConfig) Configured() bool {
	return s.User != "" && s.Password != ""
}

// To returns the recipient, defaulting to the SMTP user
func (s SMTPConfig) To() string {
	if s.Recipient != "" {
		return s.Recipient
	}
	return s.User
}

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Configured reports whether credentials are present
func (t TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Config is the top-level configuration
type Config struct {
	Timezone  string   `yaml:"timezone"`
	DaysAhead int      `yaml:"days_ahead"`
	MaxEvents int      `yaml:"max_events"`
	Keywords  []string `yaml:"keywords"`
	Schedule  string   `yaml:"schedule"`
	LogLevel  string   `yaml:"log_level"`

	Calendar CalendarConfig `yaml:"calendar"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Notify   NotifyConfig   `yaml:"notify"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	sources := make([]string, 0, len(event.Sources))
	for _, s := range event.Sources {
		sources = append(sources, s.String())
	}

	return &Config{
		Timezone:  DefaultTimezone,
		DaysAhead: DefaultDaysAhead,
		MaxEvents: rank.DefaultMaxEvents,
		Keywords:  append([]string(nil), rank.DefaultKeywords...),
		Schedule:  DefaultSchedule,
		LogLevel:  "info",
		Calendar: CalendarConfig{
			Enabled:      true,
			Provider:     ProviderICS,
			Names:        []string{},
			Feeds:        []FeedConfig{},
			LookbackDays: DefaultLookbackDays,
		},
		Scraper: ScraperConfig{
			Concurrency: DefaultConcurrency,
			Timeout:     DefaultTimeout,
			Sources:     sources,
		},
		SMTP: SMTPConfig{
			Server: DefaultSMTPServer,
			Port:   DefaultSMTPPort,
		},
	}
}

// Load reads the YAML file at path (if it exists) over the defaults, then
// applies environment overrides, normalizes and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults + environment
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files that exist. Variables
// already set in the environment win.
func LoadDotEnv(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() {
	c.DaysAhead = getenvInt("DAYS_AHEAD", c.DaysAhead)
	c.MaxEvents = getenvInt("MAX_EVENTS_IN_EMAIL", c.MaxEvents)
	if v := os.Getenv("ENABLE_CALENDAR_FILTER"); v != "" {
		c.Calendar.Enabled = strings.EqualFold(v, "true")
	}
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)

	c.SMTP.Server = getenv("SMTP_SERVER", c.SMTP.Server)
	c.SMTP.Port = getenvInt("SMTP_PORT", c.SMTP.Port)
	c.SMTP.User = getenv("SMTP_USER", c.SMTP.User)
	c.SMTP.Password = getenv("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.Recipient = getenv("EMAIL_RECIPIENT", c.SMTP.Recipient)

	c.Telegram.BotToken = getenv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	c.Telegram.ChatID = getenv("TELEGRAM_CHAT_ID", c.Telegram.ChatID)
}

// Normalize fills in zero values with defaults
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.DaysAhead <= 0 {
		c.DaysAhead = DefaultDaysAhead
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = rank.DefaultMaxEvents
	}
	if c.Keywords == nil {
		c.Keywords = append([]string(nil), rank.DefaultKeywords...)
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}

	c.Calendar.Provider = strings.ToLower(strings.TrimSpace(c.Calendar.Provider))
	if c.Calendar.Provider == "" {
		c.Calendar.Provider = ProviderICS
	}
	if c.Calendar.LookbackDays <= 0 {
		c.Calendar.LookbackDays = DefaultLookbackDays
	}

	if c.Scraper.Concurrency <= 0 {
		c.Scraper.Concurrency = DefaultConcurrency
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = DefaultTimeout
	}
	if len(c.Scraper.Sources) == 0 {
		c.Scraper.Sources = DefaultConfig().Scraper.Sources
	}

	c.Notify.Channel = strings.ToLower(strings.TrimSpace(c.Notify.Channel))
	if c.SMTP.Server == "" {
		c.SMTP.Server = DefaultSMTPServer
	}
	if c.SMTP.Port <= 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Sources(); err != nil {
		return err
	}

	switch c.Calendar.Provider {
	case ProviderICS, ProviderAppleScript:
	default:
		return fmt.Errorf("unknown calendar provider %q", c.Calendar.Provider)
	}

	switch c.Notify.Channel {
	case "", ChannelEmail, ChannelTelegram, ChannelConsole:
	default:
		return fmt.Errorf("unknown notify channel %q", c.Notify.Channel)
	}

	for i, f := range c.Calendar.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("calendar feed %d (%s) has no url", i, f.Name)
		}
	}
	return nil
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Sources resolves the configured source names
func (c *Config) Sources() ([]event.Source, error) {
	sources := make([]event.Source, 0, len(c.Scraper.Sources))
	for _, name := range c.Scraper.Sources {
		s, err := event.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("scraper.sources: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// Horizon is the search window length
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.DaysAhead) * 24 * time.Hour
}

// Lookback is how far back non-recurring calendar entries are read
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Calendar.LookbackDays) * 24 * time.Hour
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
