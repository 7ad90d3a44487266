package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "ALERTTRACK_CONFIG"
	logLevelEnv       = "ALERTTRACK_LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	firecrawlKeyEnv   = "FIRECRAWL_API_KEY"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Listing sources.
const (
	ListingSourceHTML = "html"
	ListingSourceFeed = "feed"
)

// Output schemas.
const (
	SchemaAuto     = "auto"
	SchemaMinimal  = "minimal"
	SchemaExtended = "extended"
)

// Config holds high-level settings required across the application.
type Config struct {
	Listing       ListingConfig      `yaml:"listing"`
	HTTP          HTTPConfig         `yaml:"http"`
	Extraction    ExtractionConfig   `yaml:"extraction"`
	Output        OutputConfig       `yaml:"output"`
	Storage       StorageConfig      `yaml:"storage"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ListingConfig points at the alert index page.
type ListingConfig struct {
	URL          string `yaml:"url"`
	Source       string `yaml:"source"`
	ItemSelector string `yaml:"itemSelector"`
	FeedURL      string `yaml:"feedUrl"`
}

// FeedLocation returns the Atom feed URL, derived from the listing URL when unset.
func (l ListingConfig) FeedLocation() string {
	if l.FeedURL != "" {
		return l.FeedURL
	}
	return l.URL + ".atom"
}

// HTTPConfig tunes direct page and document downloads.
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"userAgent"`
	MaxRetries int           `yaml:"maxRetries"`
}

// ExtractionConfig describes the content-extraction service and pacing.
type ExtractionConfig struct {
	Strategy            string        `yaml:"strategy"`
	Endpoint            string        `yaml:"endpoint"`
	APIKey              string        `yaml:"apiKey"`
	Timeout             time.Duration `yaml:"timeout"`
	Delay               time.Duration `yaml:"delay"`
	MaxRetries          int           `yaml:"maxRetries"`
	DocumentPrompt      string        `yaml:"documentPrompt"`
	ExtractDocumentText bool          `yaml:"extractDocumentText"`
}

// OutputConfig controls the persisted CSV.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Schema string `yaml:"schema"`
}

// StorageConfig describes the optional run snapshot database.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Enabled reports whether snapshots should be written.
func (s StorageConfig) Enabled() bool {
	return s.Driver != "" && s.DSN != ""
}

// SchedulerConfig defines how often watch mode rescans.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	MaxItems int    `yaml:"maxItems"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// MetricsConfig optionally dumps run metrics in Prometheus text format.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultPath is the per-user config location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "alerttrack", "config.yaml")
}

// Load reads YAML configuration and applies environment overrides.
// An explicit path must exist; the env and XDG locations are optional.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(configPathEnv)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		// decoding onto the defaults keeps unset keys and honours explicit zeros
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Listing.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("listing.url must be an absolute http(s) URL, got %q", c.Listing.URL)
	}
	switch c.Listing.Source {
	case ListingSourceHTML, ListingSourceFeed:
	default:
		return fmt.Errorf("listing.source must be %q or %q, got %q", ListingSourceHTML, ListingSourceFeed, c.Listing.Source)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxRetries < 0 || c.Extraction.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must be >= 0")
	}
	if c.Extraction.Strategy == "" {
		return fmt.Errorf("extraction.strategy must be set")
	}
	if c.Extraction.Timeout <= 0 {
		return fmt.Errorf("extraction.timeout must be > 0")
	}
	if c.Extraction.Delay < 0 {
		return fmt.Errorf("extraction.delay must be >= 0")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must be set")
	}
	switch c.Output.Schema {
	case SchemaAuto, SchemaMinimal, SchemaExtended:
	default:
		return fmt.Errorf("output.schema must be one of auto, minimal, extended; got %q", c.Output.Schema)
	}
	switch c.Storage.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be > 0")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(firecrawlKeyEnv); v != "" {
		c.Extraction.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimezone)
		c.Scheduler.Timezone = defaultTimezone
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Listing: ListingConfig{
			URL:          "https://www.gov.uk/drug-safety-update",
			Source:       ListingSourceHTML,
			ItemSelector: "ul.gem-c-document-list li",
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "AlertTrack/1.0",
			MaxRetries: 2,
		},
		Extraction: ExtractionConfig{
			Strategy: "document",
			Endpoint: "https://api.firecrawl.dev/v1/scrape",
			Timeout:  120 * time.Second,
			Delay:    2 * time.Second,
			DocumentPrompt: "Find the link to the downloadable PDF document for this drug safety update. " +
				"Return its absolute URL in alert_pdf, or leave alert_pdf empty if the page links no PDF.",
		},
		Output:    OutputConfig{Path: "data.csv", Schema: SchemaAuto},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{MaxItems: 10},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You summarize drug safety alerts for GP surgeries in three short bullet points.",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
