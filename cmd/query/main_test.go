package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const corpus = `[
	{"id": "1", "text": "learning go generics", "hashtag": ["golang", "generics"], "year": 2023},
	{"id": "2", "text": "shipping helm charts", "hashtag": ["kubernetes", "helm"], "year": 2019},
	{"id": "3", "text": "go channels in depth", "hashtag": ["golang", "channels"], "year": 2021, "mention": ["alice"]}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &logs
	err := app.Run(append([]string{"query"}, args...))
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	out, err := run(t, "", "compile", "--expr",
		`{"type":"and","expressions":[{"type":"word","token":"golang"},{"type":"hashtag","token":"news","excluded":true}]}`)
	require.NoError(t, err)

	assert.JSONEq(t, `{"query":{"bool":{"must":[
		{"query_string":{"query":"golang"}},
		{"bool":{"must_not":[{"term":{"hashtag":{"value":"news"}}}]}}
	]}}}`, out)
}

func TestCompileCommandInputs(t *testing.T) {
	expr := `{"type":"mention","token":"alice"}`
	expected := `{"query":{"term":{"mention":{"value":"alice"}}}}`

	t.Run("stdin", func(t *testing.T) {
		out, err := run(t, expr, "compile", "--file", "-")
		require.NoError(t, err)
		assert.JSONEq(t, expected, out)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "expr.json")
		require.NoError(t, os.WriteFile(path, []byte(expr), 0o600))
		out, err := run(t, "", "compile", "-f", path)
		require.NoError(t, err)
		assert.JSONEq(t, expected, out)
	})

	t.Run("positional", func(t *testing.T) {
		out, err := run(t, "", "compile", expr)
		require.NoError(t, err)
		assert.JSONEq(t, expected, out)
	})

	t.Run("absent result matches all", func(t *testing.T) {
		out, err := run(t, "", "compile", "--expr",
			`{"type":"explicit_term","nominator":{"type":"range","token":"[1,2]"},"term":{"type":"word","token":"x"}}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"query":{"match_all":{}}}`, out)
	})
}

func TestCompileCommandUsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  type: json\ncompiler:\n  mention_field: author\n  strict_nominators: true\n"), 0o600))

	out, err := run(t, "", "--config", path, "compile", "--expr", `{"type":"mention","token":"alice"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"term":{"author":{"value":"alice"}}}}`, out)

	_, err = run(t, "", "--config", path, "compile", "--expr",
		`{"type":"explicit_term","nominator":{"type":"range","token":"[1,2]"},"term":{"type":"word","token":"x"}}`)
	assert.True(t, errors.Is(err, searchql.ErrUnsupportedNominator))
}

func TestConfigIsLoadedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compiler:\n  hashtag_field: tags\n"), 0o600))

	var out, logs bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &logs
	before := app.Before
	app.Before = func(c *cli.Context) error {
		if err := before(c); err != nil {
			return err
		}
		// Later reads of the file would fail.
		return os.Remove(path)
	}

	err := app.Run([]string{"query", "--config", path, "compile", "--expr", `{"type":"hashtag","token":"go"}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"term":{"tags":{"value":"go"}}}}`, out.String())

	cfg, ok := app.Metadata[configKey].(config.Config)
	require.True(t, ok)
	assert.Equal(t, "tags", cfg.Compiler.HashtagField)
}

func TestCompileCommandErrors(t *testing.T) {
	_, err := run(t, "", "compile")
	assert.True(t, errors.Is(err, searchql.ErrEmptyQuery))

	_, err = run(t, "", "compile", "--expr", `{"type":"bogus"}`)
	assert.True(t, errors.Is(err, searchql.ErrInvalidExpression))

	_, err = run(t, "", "compile", "--expr",
		`{"type":"explicit_term","nominator":{"type":"word","token":"age"},"term":{"type":"range","token":"[10]"}}`)
	assert.True(t, errors.Is(err, searchql.ErrMalformedRange))
}

func TestSearchCommandWithCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o600))

	out, err := run(t, "", "search", "--corpus", path, "--sort", "-year", "--expr",
		`{"type":"and","expressions":[
			{"type":"hashtag","token":"golang"},
			{"type":"explicit_term","comparison":":>=","nominator":{"type":"word","token":"year"},"term":{"type":"word","token":"2020"}}
		]}`)
	require.NoError(t, err)

	var res struct {
		Total int64 `json:"total"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Query map[string]any `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "1", res.Items[0].ID)
	assert.Equal(t, "3", res.Items[1].ID)
	assert.Contains(t, res.Query, "query")
}

func TestSearchCommandRequiresBackend(t *testing.T) {
	t.Setenv("ALGOLIA_INDEX", "")
	_, err := run(t, "", "search", "--expr", `{"type":"word","token":"go"}`)
	assert.True(t, errors.Is(err, searchql.ErrInvalidOption))
}

func TestBuildSortOptions(t *testing.T) {
	opts, err := buildSortOptions([]string{"year", " -likes "})
	require.NoError(t, err)

	cfg := searchql.NewSearchConfig(opts...)
	assert.Equal(t, []searchql.SortField{{Field: "year"}, {Field: "likes", Desc: true}}, cfg.Sort)

	_, err = buildSortOptions([]string{"-"})
	assert.Error(t, err)
}
