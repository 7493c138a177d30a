package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Conflict policies.
const (
	ConflictPolicyWarn  = "warn"
	ConflictPolicyBlock = "block"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Store      StoreConfig       `yaml:"store"`
	Scheduling SchedulingConfig  `yaml:"scheduling"`
	LLM        LLMConfig         `yaml:"llm"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Scheduling.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the paths to the schedule file and the optional
// calendar events mirror.
type StoreConfig struct {
	Path         string `yaml:"path"`
	CalendarPath string `yaml:"calendar_path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SchedulingConfig controls date resolution, validation limits and
// conflict handling.
type SchedulingConfig struct {
	DefaultDurationMinutes int    `yaml:"default_duration_minutes"`
	MaxDurationMinutes     int    `yaml:"max_duration_minutes"`
	ConflictPolicy         string `yaml:"conflict_policy"`
	// NextWeekdayIncludesToday makes "next monday" resolve to today when
	// today is a Monday. The default is strictly after today.
	NextWeekdayIncludesToday bool `yaml:"next_weekday_includes_today"`
	CancelWindowMinutes      int  `yaml:"cancel_window_minutes"`
}

// Validate validates the scheduling configuration.
func (c *SchedulingConfig) Validate() error {
	if c.ConflictPolicy == "" {
		c.ConflictPolicy = ConflictPolicyWarn
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultDurationMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxDurationMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.ConflictPolicy, validation.Required, validation.In(ConflictPolicyWarn, ConflictPolicyBlock)),
		validation.Field(&c.CancelWindowMinutes, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.DefaultDurationMinutes > c.MaxDurationMinutes {
		return fmt.Errorf("scheduling: default duration %d exceeds max %d", c.DefaultDurationMinutes, c.MaxDurationMinutes)
	}
	return nil
}

// LLMConfig holds the intent extraction endpoint configuration. When
// APIKey is empty, extraction falls back to keyword matching.
type LLMConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Enabled returns true when an API key is configured.
func (c *LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path:         "./data/schedules.json",
			CalendarPath: "./data/calendar_events.json",
		},
		Scheduling: SchedulingConfig{
			DefaultDurationMinutes: 60,
			MaxDurationMinutes:     480,
			ConflictPolicy:         ConflictPolicyWarn,
			CancelWindowMinutes:    90,
		},
		LLM: LLMConfig{
			APIURL: "https://openrouter.ai/api/v1",
			Model:  "openai/gpt-4o-mini",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
