package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, turtle.DefaultMaxDepth, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Parser.DefaultPrefixes)
	assert.False(t, cfg.Parser.Strict)
	assert.Equal(t, IndentSpaces, cfg.Serializer.Indent)
	assert.Equal(t, turtle.DefaultIndentWidth, cfg.Serializer.IndentWidth)
	assert.True(t, cfg.Serializer.InlineBlankNodes)
	assert.True(t, cfg.Serializer.AutoPrefix)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[parser]
max_depth = 12
strict = true

[serializer]
indent = "tab"
inline_blank_nodes = false

[serializer.prefixes]
ex = "http://example.org/"

[store]
path = "/tmp/graphs"
`), 0o644))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 12, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Parser.Strict)
	assert.True(t, cfg.Parser.DefaultPrefixes, "unset keys keep their defaults")
	assert.Equal(t, IndentTab, cfg.Serializer.Indent)
	assert.False(t, cfg.Serializer.InlineBlankNodes)
	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, cfg.Serializer.Prefixes)
	assert.Equal(t, "/tmp/graphs", cfg.Store.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"info\"\n"), 0o644))
	t.Setenv("TORTOISE_LOG_LEVEL", "debug")
	t.Setenv("TORTOISE_PARSER_STRICT", "true")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Parser.Strict)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestFindUpwards(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Empty(t, findUpwards(nested))

	path := filepath.Join(root, "a", FileName)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Equal(t, path, findUpwards(nested))
	assert.Equal(t, path, findUpwards(filepath.Join(root, "a")))
	assert.Empty(t, findUpwards(root))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero depth", func(c *Config) { c.Parser.MaxDepth = 0 }, false},
		{"unknown indent", func(c *Config) { c.Serializer.Indent = "tabs" }, false},
		{"indent too wide", func(c *Config) { c.Serializer.IndentWidth = turtle.MaxIndentWidth + 1 }, false},
		{"no indent width", func(c *Config) { c.Serializer.IndentWidth = 0 }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadWithViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("serializer.indent", "zigzag")
	_, err := LoadWithViper(v)
	assert.Error(t, err)
}

func TestSerializerOptions(t *testing.T) {
	cfg := Default()
	cfg.Serializer.Prefixes = map[string]string{"ex": "http://example.org/"}
	cfg.Serializer.IndentWidth = 2
	cfg.Serializer.Base = "http://example.org/"

	o := cfg.SerializerOptions()
	assert.Equal(t, turtle.Spaces(2), o.Indent)
	assert.Equal(t, "http://example.org/", o.Base)
	assert.Equal(t, cfg.Serializer.Prefixes, o.Prefixes)
	assert.True(t, o.AutoPrefix)

	o.Prefixes["x"] = "http://x/"
	assert.NotContains(t, cfg.Serializer.Prefixes, "x", "options own their prefix map")

	cfg.Serializer.Indent = IndentTab
	assert.Equal(t, turtle.Tab(), cfg.SerializerOptions().Indent)
	cfg.Serializer.Indent = IndentNone
	assert.Equal(t, turtle.NoIndent(), cfg.SerializerOptions().Indent)
}

func TestParserOptions(t *testing.T) {
	cfg := Default()
	cfg.Parser.Base = "http://example.org/"
	cfg.Parser.DefaultPrefixes = false

	g, err := turtle.ParseString("<a> <b> <c> .", cfg.ParserOptions()...)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.Equal(t, "<http://example.org/a>", g.Triples()[0].Subject.String())

	_, err = turtle.ParseString("<a> rdf:type <c> .", cfg.ParserOptions()...)
	assert.ErrorIs(t, err, turtle.ErrUndefinedPrefix, "default prefixes are off")
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Parser.MaxDepth = 5
	cfg.Serializer.Prefixes = map[string]string{"ex": "http://example.org/"}
	cfg.Log.JSON = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), "[parser]")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	loaded, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteFile(path, Default(), false))

	err := WriteFile(path, Default(), false)
	require.Error(t, err, "an existing file is kept")
	require.NoError(t, WriteFile(path, Default(), true))
}

func TestEncode(t *testing.T) {
	cfg := Default()
	cfg.Serializer.Prefixes = map[string]string{"ex": "http://example.org/"}

	tests := []struct {
		format string
		want   string
	}{
		{FormatTOML, "[serializer]"},
		{FormatJSON, `"indent_width": 4`},
		{FormatYAML, "auto_prefix: true"},
		{"YAML", "ex: http://example.org/"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, cfg, tt.format))
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	err := Encode(&bytes.Buffer{}, cfg, "xml")
	assert.ErrorContains(t, err, "unsupported format")
}
