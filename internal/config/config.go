package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string       `yaml:"version" json:"version"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Source  SourceConfig `yaml:"source" json:"source"`
	Output  OutputConfig `yaml:"output" json:"output"`
	UI      UIConfig     `yaml:"ui" json:"ui"`
}

// ServerConfig configures the portal history endpoint
type ServerConfig struct {
	BaseURL       string            `yaml:"base_url" json:"base_url"`             // portal root URL
	HistoryPath   string            `yaml:"history_path" json:"history_path"`     // history API path
	Timeout       time.Duration     `yaml:"timeout" json:"timeout"`               // per-request timeout
	MaxRetries    int               `yaml:"max_retries" json:"max_retries"`       // extra attempts for the same page
	RetryDelay    time.Duration     `yaml:"retry_delay" json:"retry_delay"`       // pause between attempts
	SessionCookie string            `yaml:"session_cookie" json:"session_cookie"` // portal session, sent as a cookie
	Headers       map[string]string `yaml:"headers" json:"headers"`               // extra request headers
}

// SourceConfig configures reading history from an exported file
type SourceConfig struct {
	File     string        `yaml:"file" json:"file"`         // exported history (json or yaml)
	Watch    bool          `yaml:"watch" json:"watch"`       // reload on file changes
	Debounce time.Duration `yaml:"debounce" json:"debounce"` // coalesce bursts of writes
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown|csv|html
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`               // default verbosity
}

// UIConfig configures the interactive viewer
type UIConfig struct {
	Theme string `yaml:"theme" json:"theme"` // default|high-contrast|minimal
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			BaseURL:     "http://localhost:5000",
			HistoryPath: "/request/api/v1.0/history",
			Timeout:     15 * time.Second,
			MaxRetries:  0,
			RetryDelay:  500 * time.Millisecond,
			Headers:     make(map[string]string),
		},
		Source: SourceConfig{
			Watch:    true,
			Debounce: 200 * time.Millisecond,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
		},
		UI: UIConfig{
			Theme: "default",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServerConfig(); err != nil {
		return err
	}
	if err := c.validateSourceConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return c.validateUIConfig()
}

func (c *Config) validateServerConfig() error {
	if c.Server.BaseURL != "" {
		u, err := url.Parse(c.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base_url scheme: %q (must be http or https)", u.Scheme)
		}
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Server.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.Server.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}
	return nil
}

func (c *Config) validateSourceConfig() error {
	if c.Source.Debounce < 0 {
		return fmt.Errorf("debounce must be non-negative")
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"text":     true,
			"json":     true,
			"markdown": true,
			"html":     true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json, markdown, csv, html)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.UI.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
		}
	}
	return nil
}

// HistoryURL joins the base URL and the history path
func (c *Config) HistoryURL() (string, error) {
	base, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	return base.JoinPath(c.Server.HistoryPath).String(), nil
}
