package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/boolquery"
	"github.com/letmevibethatforyou/searchql/elastic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
logger:
  level: debug
  type: json
compiler:
  hashtag_field: tags
  strict_nominators: true
algolia:
  index: posts
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Type)
	assert.Equal(t, "tags", cfg.Compiler.HashtagField)
	assert.Equal(t, elastic.DefaultMentionField, cfg.Compiler.MentionField)
	assert.True(t, cfg.Compiler.StrictNominators)
	assert.Equal(t, "posts", cfg.Algolia.Index)
	assert.Empty(t, cfg.Algolia.SecretARN)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("compiler:\n  hashtag: tags\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "searchql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compiler:\n  mention_field: author\n"), 0o600))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "author", cfg.Compiler.MentionField)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCompilerOptions(t *testing.T) {
	cfg := Default()
	cfg.Compiler.HashtagField = "tags"
	cfg.Compiler.MentionField = "author"

	c := elastic.New(cfg.CompilerOptions()...)

	q, err := c.Compile(searchql.NewHashtag("go", searchql.Modifiers{}))
	require.NoError(t, err)
	assert.Equal(t, boolquery.Term("tags", "go"), q)

	q, err = c.Compile(searchql.NewMention("alice", searchql.Modifiers{}))
	require.NoError(t, err)
	assert.Equal(t, boolquery.Term("author", "alice"), q)

	cfg.Compiler.StrictNominators = true
	strict := elastic.New(cfg.CompilerOptions()...)
	_, err = strict.Compile(searchql.NewExplicitTerm(
		searchql.NewRange("[1,2]"), searchql.CompareEq, searchql.NewWord("x", searchql.Modifiers{}), searchql.Modifiers{},
	))
	assert.ErrorIs(t, err, searchql.ErrUnsupportedNominator)
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggerConfig
		wantErr bool
	}{
		{name: "defaults", cfg: LoggerConfig{}},
		{name: "json", cfg: LoggerConfig{Level: "warn", Type: "json"}},
		{name: "text", cfg: LoggerConfig{Level: "ERROR", Type: "text"}},
		{name: "colored", cfg: LoggerConfig{Level: "debug", Type: "colored-text"}},
		{name: "bad level", cfg: LoggerConfig{Level: "loud"}, wantErr: true},
		{name: "bad type", cfg: LoggerConfig{Type: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := tt.cfg.Logger(&bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}

	var buf bytes.Buffer
	logger, err := LoggerConfig{Level: "warn", Type: "json"}.Logger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
