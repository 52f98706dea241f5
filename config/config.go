// Package config loads the YAML configuration of the layout inference tool.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foomo/layoutinfer/errors"
)

type Config struct {
	Parse         Parse         `yaml:"parse"`
	Log           Log           `yaml:"log"`
	Debug         Debug         `yaml:"debug"`
	Export        Export        `yaml:"export"`
	ContentServer ContentServer `yaml:"contentserver"`
	HTTP          HTTP          `yaml:"http"`
}

type Parse struct {
	// ContentSelector picks the page body: "#id", ".class" or a tag name.
	ContentSelector string `yaml:"content_selector"`
	KeepWhitespace  bool   `yaml:"keep_whitespace"`
	// Concurrency bounds parallel fetching and parsing of documents.
	Concurrency int `yaml:"concurrency"`
}

type LogMode string

const (
	LogModeDevelopment LogMode = "development"
	LogModeProduction  LogMode = "production"
)

type Log struct {
	Mode  LogMode `yaml:"mode"`
	Level string  `yaml:"level"`
}

type Debug struct {
	// Dir receives per-round snapshots. Empty disables them.
	Dir string `yaml:"dir"`
}

type Engine string

const (
	EngineHugo    Engine = "hugo"
	EnginePreview Engine = "preview"
)

type Export struct {
	Engine    Engine `yaml:"engine"`
	OutputDir string `yaml:"output_dir"`
}

type ContentServer struct {
	URL       string   `yaml:"url"`
	BaseURL   string   `yaml:"base_url"`
	MimeTypes []string `yaml:"mime_types"`
}

type HTTP struct {
	Addr     string `yaml:"addr"`
	Endpoint string `yaml:"endpoint"`
	Metrics  bool   `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Parse: Parse{Concurrency: 4},
		Log:   Log{Mode: LogModeProduction, Level: "info"},
		Export: Export{
			Engine:    EngineHugo,
			OutputDir: "./site",
		},
		ContentServer: ContentServer{MimeTypes: []string{"text/html"}},
		HTTP: HTTP{
			Addr:     ":8080",
			Endpoint: "/mcp",
		},
	}
}

// Load reads configuration from path on top of the defaults. Environment
// variables in the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}
	if err := Unmarshal(cfg, []byte(os.ExpandEnv(string(raw)))); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Unmarshal decodes raw YAML into cfg and validates the result.
func Unmarshal(cfg *Config, raw []byte) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Log.Mode {
	case LogModeDevelopment, LogModeProduction:
	default:
		return invalid("log.mode", string(c.Log.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level)
	}
	switch c.Export.Engine {
	case EngineHugo, EnginePreview:
	default:
		return invalid("export.engine", string(c.Export.Engine))
	}
	if c.Parse.Concurrency < 1 {
		return invalid("parse.concurrency", fmt.Sprint(c.Parse.Concurrency))
	}
	if sel := c.Parse.ContentSelector; sel == "#" || sel == "." {
		return invalid("parse.content_selector", sel)
	}
	if c.ContentServer.URL != "" && c.ContentServer.BaseURL == "" {
		return errors.NewError(errors.CategoryConfig, "contentserver.base_url is required with contentserver.url").Build()
	}
	if !strings.HasPrefix(c.HTTP.Endpoint, "/") {
		return invalid("http.endpoint", c.HTTP.Endpoint)
	}
	return nil
}

func invalid(field, value string) error {
	return errors.NewError(errors.CategoryConfig, "invalid value").
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
