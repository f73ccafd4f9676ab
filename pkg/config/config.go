package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the client-side configuration of socialconnect.
// Every field can be set from the environment; LoadFile additionally reads a yaml, json, toml or .env file.
type Config struct {
	Debug bool `yaml:"debug" json:"debug" env:"SOCIAL_DEBUG" env-default:"false"`

	Account  AccountConfig  `yaml:"account" json:"account"`
	Facebook FacebookConfig `yaml:"facebook" json:"facebook"`
}

// AccountConfig contains backend account service settings
type AccountConfig struct {
	// ServerURL is the base URL every endpoint is appended to. Keep the trailing slash.
	ServerURL string        `yaml:"server_url" json:"server_url" env:"ACCOUNT_SERVER_URL" env-default:"http://api.gamefroot.com/v1/"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" env:"ACCOUNT_TIMEOUT" env-default:"30s"`
	// GameName is sent as the "game" field of every request
	GameName string `yaml:"game_name" json:"game_name" env:"ACCOUNT_GAME_NAME"`
	// Ref is sent as the "ref" field on login and link requests
	Ref string `yaml:"ref" json:"ref" env:"ACCOUNT_REF"`
}

// FacebookConfig contains social-network provider settings
type FacebookConfig struct {
	AppID     string `yaml:"app_id" json:"app_id" env:"FACEBOOK_APP_ID"`
	Version   string `yaml:"version" json:"version" env:"FACEBOOK_VERSION" env-default:"v2.2"`
	SDKURL    string `yaml:"sdk_url" json:"sdk_url" env:"FACEBOOK_SDK_URL" env-default:"http://connect.facebook.net/en_US/sdk.js"`
	ShareLink string `yaml:"share_link" json:"share_link" env:"FACEBOOK_SHARE_LINK"`
}

// Enabled reports whether an application id has been configured
func (c FacebookConfig) Enabled() bool {
	return c.AppID != ""
}

// Load reads Config from environment variables, applying defaults
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return cfg, nil
}

// LoadFile reads Config from a file; environment variables override file values
func LoadFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return cfg, nil
}

// Usage returns a description of every supported environment variable
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return desc
}
