// internal/config/config.go
package config

import (
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	FacingBack  = "back"
	FacingFront = "front"
)

type Config struct {
	// Lookup
	BaseURL       string        `yaml:"base_url" default:"https://world.openfoodfacts.org" validate:"required,url"`
	UserAgent     string        `yaml:"user_agent" default:"allerscan/0.1 (https://github.com/jackchuka/allerscan)" validate:"required"`
	LookupTimeout time.Duration `yaml:"lookup_timeout" default:"10s" validate:"gt=0"`

	// Sensors
	BackDevice     string   `yaml:"back_device" default:"/dev/ttyACM0" validate:"required"`
	FrontDevice    string   `yaml:"front_device"`
	DefaultFacing  string   `yaml:"default_facing" default:"back" validate:"oneof=back front"`
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// Diagnostics. An empty log_file turns logging off in the interactive screen.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`
}

func NewConfig() *Config {
	cfg := &Config{}
	// Only fails for non-pointer input or malformed tags.
	_ = defaults.Set(cfg)
	cfg.IgnorePatterns = []string{
		"http://*",
		"https://*",
		"WIFI:*",
	}
	cfg.LogFile = DefaultLogPath()
	return cfg
}

var validate = validator.New()

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return errors.Errorf("invalid config: %s failed %q", e.Field(), e.Tag())
		}
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// HasFront reports whether a second sensor is configured.
func (c *Config) HasFront() bool {
	return c.FrontDevice != ""
}
