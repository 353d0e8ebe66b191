// Package config loads the YAML configuration shared by the query CLI and
// the Lambda functions.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql/elastic"
	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Compiler CompilerConfig `yaml:"compiler"`
	Algolia  AlgoliaConfig  `yaml:"algolia"`
}

// LoggerConfig selects the slog level and handler.
type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// CompilerConfig maps onto the elastic compiler options.
type CompilerConfig struct {
	HashtagField     string `yaml:"hashtag_field"`
	MentionField     string `yaml:"mention_field"`
	StrictNominators bool   `yaml:"strict_nominators"`
}

// AlgoliaConfig names the index searched and the secret holding its credentials.
type AlgoliaConfig struct {
	Index     string `yaml:"index"`
	SecretARN string `yaml:"secret_arn"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Type: "colored-text"},
		Compiler: CompilerConfig{
			HashtagField: elastic.DefaultHashtagField,
			MentionField: elastic.DefaultMentionField,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot load config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "cannot parse config")
	}
	return cfg, nil
}

// CompilerOptions converts the compiler section into elastic options.
func (cfg Config) CompilerOptions() []elastic.Option {
	var opts []elastic.Option
	if cfg.Compiler.HashtagField != "" {
		opts = append(opts, elastic.WithHashtagField(cfg.Compiler.HashtagField))
	}
	if cfg.Compiler.MentionField != "" {
		opts = append(opts, elastic.WithMentionField(cfg.Compiler.MentionField))
	}
	opts = append(opts, elastic.WithStrictNominators(cfg.Compiler.StrictNominators))
	return opts
}

// Logger builds the logger described by the logger section, writing to w.
func (cfg LoggerConfig) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, errors.Newf("invalid log level: %s", cfg.Level)
	}

	var handler slog.Handler
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "", "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	default:
		return nil, errors.Newf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}
