package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/algolia"
	"github.com/letmevibethatforyou/searchql/boolquery"
	"github.com/letmevibethatforyou/searchql/elastic"
	"github.com/letmevibethatforyou/searchql/inmemory"
	"github.com/letmevibethatforyou/searchql/internal/config"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

const (
	defaultLimit   = 10
	defaultTimeout = 5 * time.Second
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func exprFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "expr",
			Aliases: []string{"e"},
			Usage:   "Expression tree as JSON; positional arg is a fallback",
		},
		&cli.PathFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read the expression tree from a file (- for stdin)",
		},
	}
	return append(flags, extra...)
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "query",
		Usage: "Compile query expression trees and run them against a search backend",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"SEARCHQL_CONFIG"},
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:   "compile",
				Usage:  "Print the query DSL for an expression tree",
				Flags:  exprFlags(),
				Action: compileAction,
			},
			{
				Name:  "search",
				Usage: "Compile an expression tree and execute it",
				Flags: exprFlags(
					&cli.PathFlag{
						Name:  "corpus",
						Usage: "Search a JSON array of documents in memory instead of Algolia",
					},
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Algolia index name",
						EnvVars: []string{"ALGOLIA_INDEX"},
					},
					&cli.StringFlag{
						Name:    "algolia-secret-arn",
						Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
						EnvVars: []string{"ALGOLIA_SECRET_ARN"},
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of results to return",
						Value:   defaultLimit,
					},
					&cli.IntFlag{
						Name:    "offset",
						Aliases: []string{"o"},
						Usage:   "Number of results to skip before returning hits",
					},
					&cli.StringSliceFlag{
						Name:  "sort",
						Usage: "Sort field, prefix with - for descending; repeatable",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the search request",
						Value: defaultTimeout,
					},
				),
				Action: searchAction,
			},
		},
	}
}

const configKey = "config"

// appConfig returns the configuration loaded by setupLogging.
func appConfig(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Default()
}

// setupLogging loads the configuration once per run, keeps it in the app
// metadata and installs the default logger from it.
func setupLogging(c *cli.Context) error {
	cfg, err := config.Load(c.Path("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		cfg.Logger.Type = "json"
	}

	logger, err := cfg.Logger.Logger(c.App.ErrWriter)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// readExpression loads the tree from --expr, --file or the first argument.
func readExpression(c *cli.Context) (searchql.Node, error) {
	var data []byte
	switch {
	case c.String("expr") != "":
		data = []byte(c.String("expr"))
	case c.Path("file") == "-":
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read expression from stdin")
		}
		data = b
	case c.Path("file") != "":
		b, err := os.ReadFile(c.Path("file"))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read expression file %s", c.Path("file"))
		}
		data = b
	case c.NArg() > 0:
		data = []byte(c.Args().First())
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, searchql.ErrEmptyQuery
	}
	return searchql.ParseJSON(data)
}

func compileExpression(c *cli.Context, logger *slog.Logger) (boolquery.Query, error) {
	cfg := appConfig(c)

	node, err := readExpression(c)
	if err != nil {
		return nil, err
	}

	q, err := elastic.New(cfg.CompilerOptions()...).Compile(node)
	if err != nil {
		return nil, errors.Wrap(err, "compile failed")
	}
	if q == nil {
		logger.WarnContext(c.Context, "expression compiled to nothing; matching all documents")
	}
	return q, nil
}

func compileAction(c *cli.Context) error {
	logger := slog.With("request_id", ksuid.New().String())

	q, err := compileExpression(c, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(c.Context, "compiled expression")
	return writeJSON(c.App.Writer, boolquery.Request(q))
}

func searchAction(c *cli.Context) error {
	ctx := c.Context
	logger := slog.With("request_id", ksuid.New().String())

	q, err := compileExpression(c, logger)
	if err != nil {
		return err
	}

	limit := c.Int("limit")
	if limit <= 0 {
		logger.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	offset := c.Int("offset")
	if offset < 0 {
		logger.WarnContext(ctx, "offset cannot be negative; resetting to 0", "offset", offset)
		offset = 0
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		logger.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	opts := []searchql.SearchOption{
		searchql.WithLimit(limit),
		searchql.WithOffset(offset),
	}
	sortOpts, err := buildSortOptions(c.StringSlice("sort"))
	if err != nil {
		return err
	}
	opts = append(opts, sortOpts...)

	searcher, err := newSearcher(c, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.InfoContext(ctx, "executing query",
		"limit", limit,
		"offset", offset,
		"sort_count", len(sortOpts),
		"timeout", timeout,
	)

	results, err := searcher.Search(ctx, q, opts...)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}

	return printResults(c.App.Writer, results)
}

// newSearcher picks the in-memory corpus when --corpus is set, Algolia otherwise.
func newSearcher(c *cli.Context, logger *slog.Logger) (searchql.Searcher, error) {
	ctx := c.Context

	if corpus := c.Path("corpus"); corpus != "" {
		data, err := os.ReadFile(corpus)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read corpus %s", corpus)
		}
		s := inmemory.New()
		if err := s.AddJSONDocuments(data); err != nil {
			return nil, errors.Wrapf(err, "failed to load corpus %s", corpus)
		}
		logger.InfoContext(ctx, "loaded in-memory corpus", "path", corpus, "documents", s.Size())
		return s, nil
	}

	cfg := appConfig(c)

	indexName := strings.TrimSpace(c.String("index"))
	if indexName == "" {
		indexName = cfg.Algolia.Index
	}
	if indexName == "" {
		return nil, errors.WithSecondaryError(searchql.ErrInvalidOption, errors.New("an Algolia index or --corpus is required"))
	}

	secretArn := strings.TrimSpace(c.String("algolia-secret-arn"))
	if secretArn == "" {
		secretArn = cfg.Algolia.SecretARN
	}

	var fetchSecrets algolia.FetchSecrets
	if secretArn != "" {
		logger.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", secretArn)
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS config")
		}
		fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(awsCfg), secretArn)
	} else {
		fetchSecrets = algolia.EnvSecrets()
	}

	logger.InfoContext(ctx, "using Algolia index", "index", indexName)
	return algolia.NewSearcher(algolia.NewClient(fetchSecrets), indexName), nil
}

func buildSortOptions(raw []string) ([]searchql.SearchOption, error) {
	options := make([]searchql.SearchOption, 0, len(raw))
	for _, item := range raw {
		field := strings.TrimSpace(item)
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			return nil, errors.Newf("sort field cannot be empty: %q", item)
		}
		options = append(options, searchql.WithSort(field, desc))
	}
	return options, nil
}

func printResults(w io.Writer, res *searchql.Results) error {
	if res == nil {
		return writeJSON(w, struct{}{})
	}

	payload := struct {
		Total      int64             `json:"total"`
		Took       int64             `json:"took_ms"`
		Query      map[string]any    `json:"query"`
		MaxScore   float64           `json:"max_score"`
		NextOffset *int              `json:"next_offset,omitempty"`
		Items      []searchql.Result `json:"items"`
	}{
		Total:      res.Total,
		Took:       res.Took,
		Query:      res.Query,
		MaxScore:   res.MaxScore,
		NextOffset: res.NextOffset,
		Items:      res.Items,
	}

	return writeJSON(w, payload)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
