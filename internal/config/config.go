package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
	Log    LogConfig    `yaml:"log"`
	Quiz   QuizConfig   `yaml:"quiz"`
}

type DeviceConfig struct {
	// Zero values mean auto-detect: the known Buzz receivers are tried in
	// order (wireless dongle, then wired).
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type QuizConfig struct {
	Enabled bool `yaml:"enabled"`
	// LockoutMs is how long a locked round lasts before it re-arms on its
	// own. Zero keeps the round locked until the unlock button is pressed.
	LockoutMs int `yaml:"lockout_ms"`
	// UnlockColor is the button color that ends a locked round early.
	UnlockColor string `yaml:"unlock_color"`
}

var validColors = map[string]bool{
	"red": true, "blue": true, "orange": true, "green": true, "yellow": true,
}

var validLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Load reads, validates, and defaults a config file. A missing file is an
// error; callers that tolerate absence should check Exists first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) validate() error {
	// One ID given without the other is almost certainly a mistake.
	if (c.Device.VendorID == 0) != (c.Device.ProductID == 0) {
		return fmt.Errorf("device.vendor_id and device.product_id must be set together")
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.Quiz.UnlockColor != "" && !validColors[c.Quiz.UnlockColor] {
		return fmt.Errorf("unknown quiz.unlock_color %q", c.Quiz.UnlockColor)
	}
	if c.Quiz.LockoutMs < 0 {
		return fmt.Errorf("quiz.lockout_ms must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Quiz.UnlockColor == "" {
		c.Quiz.UnlockColor = "green"
	}
	if c.Quiz.LockoutMs == 0 {
		c.Quiz.LockoutMs = 5000
	}
}

// UpdateDeviceIDs rewrites vendor_id and product_id in a config file in
// place, preserving the rest of the file including comments.
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)

	vendorRegex := regexp.MustCompile(`(?m)^(\s*vendor_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = vendorRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", vendorID))

	productRegex := regexp.MustCompile(`(?m)^(\s*product_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = productRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a fresh config file pointing at the given
// device.
func CreateDefaultConfig(path string, vendorID, productID uint16) error {
	content := fmt.Sprintf(`# Buzzer driver configuration

device:
  vendor_id: 0x%04X
  product_id: 0x%04X

log:
  level: info

quiz:
  enabled: false
  lockout_ms: 5000
  unlock_color: green
`, vendorID, productID)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
