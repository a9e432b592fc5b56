// Package config loads tortoise settings from tortoise.toml and
// TORTOISE_* environment variables.
package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// FileName is the project configuration file searched for by Load.
const FileName = "tortoise.toml"

// EnvPrefix prefixes environment overrides, e.g. TORTOISE_LOG_LEVEL.
const EnvPrefix = "TORTOISE"

// Config is the complete tortoise configuration
type Config struct {
	Parser     ParserConfig     `mapstructure:"parser" toml:"parser" yaml:"parser" json:"parser"`
	Serializer SerializerConfig `mapstructure:"serializer" toml:"serializer" yaml:"serializer" json:"serializer"`
	Store      StoreConfig      `mapstructure:"store" toml:"store" yaml:"store" json:"store"`
	Log        LogConfig        `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

type ParserConfig struct {
	Base            string `mapstructure:"base" toml:"base" yaml:"base" json:"base"`
	MaxDepth        int    `mapstructure:"max_depth" toml:"max_depth" yaml:"max_depth" json:"max_depth"`
	Strict          bool   `mapstructure:"strict" toml:"strict" yaml:"strict" json:"strict"`
	DefaultPrefixes bool   `mapstructure:"default_prefixes" toml:"default_prefixes" yaml:"default_prefixes" json:"default_prefixes"`
}

type SerializerConfig struct {
	Prefixes         map[string]string `mapstructure:"prefixes" toml:"prefixes" yaml:"prefixes" json:"prefixes"`
	AutoPrefix       bool              `mapstructure:"auto_prefix" toml:"auto_prefix" yaml:"auto_prefix" json:"auto_prefix"`
	Indent           string            `mapstructure:"indent" toml:"indent" yaml:"indent" json:"indent"` // spaces, tab or none
	IndentWidth      int               `mapstructure:"indent_width" toml:"indent_width" yaml:"indent_width" json:"indent_width"`
	InlineBlankNodes bool              `mapstructure:"inline_blank_nodes" toml:"inline_blank_nodes" yaml:"inline_blank_nodes" json:"inline_blank_nodes"`
	Base             string            `mapstructure:"base" toml:"base" yaml:"base" json:"base"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Level string `mapstructure:"level" toml:"level" yaml:"level" json:"level"`
}

const (
	IndentSpaces = "spaces"
	IndentTab    = "tab"
	IndentNone   = "none"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("parser.base", "")
	v.SetDefault("parser.max_depth", turtle.DefaultMaxDepth)
	v.SetDefault("parser.strict", false)
	v.SetDefault("parser.default_prefixes", true)

	v.SetDefault("serializer.auto_prefix", true)
	v.SetDefault("serializer.indent", IndentSpaces)
	v.SetDefault("serializer.indent_width", turtle.DefaultIndentWidth)
	v.SetDefault("serializer.inline_blank_nodes", true)
	v.SetDefault("serializer.base", "")

	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "warn")
}

func defaultStorePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "tortoise", "store")
	}
	return ".tortoise"
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// Load reads configuration from path, or from the nearest tortoise.toml
// when path is empty. Environment variables override file values.
// It returns the configuration and the file it was read from, if any.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		path = FindProjectConfig()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindProjectConfig walks up from the working directory looking for
// tortoise.toml. It returns "" when none is found.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findUpwards(dir)
}

func findUpwards(dir string) string {
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Parser.MaxDepth < 1 {
		return errors.Newf("parser.max_depth must be positive, got %d", c.Parser.MaxDepth)
	}
	switch c.Serializer.Indent {
	case IndentSpaces, IndentTab, IndentNone:
	default:
		return errors.WithHint(
			errors.Newf("unknown serializer.indent %q", c.Serializer.Indent),
			"use one of: spaces, tab, none")
	}
	if c.Serializer.IndentWidth < 0 || c.Serializer.IndentWidth > turtle.MaxIndentWidth {
		return errors.Newf("serializer.indent_width must be between 0 and %d, got %d",
			turtle.MaxIndentWidth, c.Serializer.IndentWidth)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// ParserOptions translates the parser section into parser options.
func (c *Config) ParserOptions() []turtle.Option {
	opts := []turtle.Option{
		turtle.WithMaxDepth(c.Parser.MaxDepth),
		turtle.WithStrict(c.Parser.Strict),
	}
	if c.Parser.Base != "" {
		opts = append(opts, turtle.WithBase(c.Parser.Base))
	}
	if !c.Parser.DefaultPrefixes {
		opts = append(opts, turtle.WithoutDefaultPrefixes())
	}
	return opts
}

// SerializerOptions translates the serializer section.
func (c *Config) SerializerOptions() turtle.SerializerOptions {
	o := turtle.DefaultSerializerOptions()
	o.Prefixes = make(map[string]string, len(c.Serializer.Prefixes))
	for p, ns := range c.Serializer.Prefixes {
		o.Prefixes[p] = ns
	}
	o.AutoPrefix = c.Serializer.AutoPrefix
	o.InlineBlankNodes = c.Serializer.InlineBlankNodes
	o.Base = c.Serializer.Base
	switch c.Serializer.Indent {
	case IndentTab:
		o.Indent = turtle.Tab()
	case IndentNone:
		o.Indent = turtle.NoIndent()
	default:
		o.Indent = turtle.Spaces(c.Serializer.IndentWidth)
	}
	return o
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config to TOML")
	}
	_, err = w.Write(data)
	return err
}

// Output formats accepted by Encode
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes cfg in the named format.
func Encode(w io.Writer, cfg *Config, format string) error {
	switch strings.ToLower(format) {
	case FormatTOML:
		return Write(w, cfg)
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		_, err = w.Write(data)
		return err
	default:
		return errors.WithHint(
			errors.Newf("unsupported format: %s", format),
			"supported: toml, json, yaml")
	}
}

// WriteFile writes cfg to path, refusing to replace an existing file
// unless force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return errors.WithHint(errors.Newf("%s already exists", path), "pass --force to overwrite it")
		}
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
