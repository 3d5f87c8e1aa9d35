package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	Bitrix   BitrixConfig   `yaml:"bitrix" mapstructure:"bitrix"`
	Drive    DriveConfig    `yaml:"drive" mapstructure:"drive"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Circuit  CircuitConfig  `yaml:"circuit" mapstructure:"circuit"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// TelegramConfig holds the chat bot credentials.
type TelegramConfig struct {
	Token           string `yaml:"token" mapstructure:"token"`
	WebhookSecret   string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	PollTimeoutSecs int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// BitrixConfig configures the CRM webhook client and the deal fields the
// report reads.
type BitrixConfig struct {
	// WebhookBase is the REST root, https://<portal>/rest/<user>/<token>/.
	WebhookBase string `yaml:"webhook_base" mapstructure:"webhook_base"`
	// ContactURL is any method URL under the same webhook; the base is cut
	// from it when WebhookBase is empty.
	ContactURL      string  `yaml:"contact_url" mapstructure:"contact_url"`
	CategoryID      int     `yaml:"category_id" mapstructure:"category_id"`
	ConsultantField string  `yaml:"consultant_field" mapstructure:"consultant_field"`
	DebtField       string  `yaml:"debt_field" mapstructure:"debt_field"`
	CourtField      string  `yaml:"court_field" mapstructure:"court_field"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	HistoryLimit    int     `yaml:"history_limit" mapstructure:"history_limit"`
}

// Timeout returns the per-request transport timeout.
func (c BitrixConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DriveConfig configures the document store.
type DriveConfig struct {
	RootFolderID    string  `yaml:"root_folder_id" mapstructure:"root_folder_id"`
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	PlanFileName    string  `yaml:"plan_file_name" mapstructure:"plan_file_name"`
	PlanFilePattern string  `yaml:"plan_file_pattern" mapstructure:"plan_file_pattern"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-request transport timeout.
func (c DriveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// Location loads the configured time zone, falling back to UTC.
func (c ReportConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		zap.L().Warn("config: unknown report timezone, using UTC",
			zap.String("timezone", c.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// RetryConfig configures retries of transient collaborator failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the webhook server. The JSON API is mounted only
// when APIToken is set; browsers may call it only from CORSOrigins.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	APIToken    string   `yaml:"api_token" mapstructure:"api_token"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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

	// Environment
	v.SetEnvPrefix("CASECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a natural default are still registered so
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.poll_timeout_secs", 30)
	v.SetDefault("bitrix.webhook_base", "")
	v.SetDefault("bitrix.contact_url", "")
	v.SetDefault("bitrix.category_id", 1)
	v.SetDefault("bitrix.consultant_field", "UF_CRM_1708783848")
	v.SetDefault("bitrix.debt_field", "UF_CRM_62F6731E2FFAF")
	v.SetDefault("bitrix.court_field", "UF_CRM_1660157603")
	v.SetDefault("bitrix.rate_limit", 2.0)
	v.SetDefault("bitrix.timeout_secs", 30)
	v.SetDefault("bitrix.history_limit", 300)
	v.SetDefault("drive.root_folder_id", "")
	v.SetDefault("drive.credentials_file", "/etc/secrets/main_acc.json")
	v.SetDefault("drive.plan_file_name", "Б. План Вашого звільнення.docx")
	v.SetDefault("drive.plan_file_pattern", "План Вашого звільнення")
	v.SetDefault("drive.rate_limit", 10.0)
	v.SetDefault("drive.timeout_secs", 30)
	v.SetDefault("report.timezone", "Europe/Kyiv")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_token", "")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that every input the given command needs is present and
// reports all problems at once. Modes are "check", "bot" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "check":
	case "bot":
		if c.Telegram.Token == "" {
			errs = append(errs, "telegram.token is required")
		}
	case "serve":
		if c.Telegram.Token == "" {
			errs = append(errs, "telegram.token is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535 (got %d)", c.Server.Port))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Bitrix.WebhookBase == "" && c.Bitrix.ContactURL == "" {
		errs = append(errs, "bitrix.webhook_base or bitrix.contact_url is required")
	}
	if c.Drive.RootFolderID == "" {
		errs = append(errs, "drive.root_folder_id is required")
	}
	if c.Bitrix.CategoryID < 0 {
		errs = append(errs, "bitrix.category_id must be >= 0")
	}
	if c.Bitrix.HistoryLimit <= 0 {
		errs = append(errs, "bitrix.history_limit must be > 0")
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
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
