package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

var (
	topics = map[string][]string{
		"golang":     {"generics", "goroutines", "channels", "modules", "interfaces", "testing"},
		"kubernetes": {"pods", "operators", "helm", "ingress", "autoscaling"},
		"databases":  {"postgres", "indexes", "replication", "sharding", "transactions"},
		"security":   {"tls", "oauth", "secrets", "audit", "sandboxing"},
		"frontend":   {"react", "css", "accessibility", "bundlers", "hydration"},
	}

	authors = []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}

	verbs = []string{"learning", "debugging", "shipping", "benchmarking", "refactoring", "reviewing"}
)

// PutItemAPI is the subset of the DynamoDB client used for seeding.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// generatePost builds a random post document for the given index.
func generatePost(r *rand.Rand, index string) ddb.Document {
	topic := pick(r, topicNames())
	sub := pick(r, topics[topic])
	author := pick(r, authors)
	mentioned := pick(r, authors)

	return ddb.Document{
		ID:    ksuid.New().String(),
		Index: index,
		Fields: map[string]any{
			"text":    strings.Join([]string{pick(r, verbs), topic, sub, "with", "@" + mentioned}, " "),
			"hashtag": []any{topic, sub},
			"mention": []any{mentioned},
			"author":  author,
			"year":    float64(2015 + r.IntN(10)),
			"likes":   float64(r.IntN(500)),
		},
	}
}

// topicNames returns the topics in a stable order so a seed reproduces its posts.
func topicNames() []string {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func insertPost(ctx context.Context, client PutItemAPI, tableName string, doc ddb.Document) error {
	item, err := ddb.MarshalDocument(doc)
	if err != nil {
		return err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return errors.Wrap(err, "failed to put item in DynamoDB")
	}

	slog.InfoContext(ctx, "Successfully inserted post", "id", doc.ID, "index", doc.Index, "text", doc.Fields["text"])
	return nil
}

// writeCorpus writes the documents as a JSON array usable by `query search --corpus`.
func writeCorpus(path string, docs []ddb.Document) error {
	objects := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		obj := doc.Object()
		delete(obj, "objectID")
		obj["id"] = doc.ID
		objects = append(objects, obj)
	}

	data, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal corpus")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write corpus %s", path)
	}
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	index := c.String("index")
	out := c.String("out")
	count := c.Int("count")

	if tableName == "" && out == "" {
		return errors.New("one of --table-name or --out is required")
	}
	if count < 0 {
		return errors.Newf("count cannot be negative: %d", count)
	}

	slog.InfoContext(ctx, "Starting post generator", "table", tableName, "index", index, "count", count)

	r := rand.New(rand.NewPCG(c.Uint64("seed"), c.Uint64("seed")))
	docs := make([]ddb.Document, count)
	for i := range docs {
		docs[i] = generatePost(r, index)
	}

	if tableName != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to load AWS config")
		}
		client := dynamodb.NewFromConfig(cfg)
		for i, doc := range docs {
			if err := insertPost(ctx, client, tableName, doc); err != nil {
				return errors.Wrapf(err, "failed to insert post %d", i+1)
			}
		}
	}

	if out != "" {
		if err := writeCorpus(out, docs); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Successfully generated all posts", "count", count)
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate random posts into DynamoDB or a JSON corpus file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table name",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Search index the posts belong to (stored as sk)",
				Value:   "posts",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the posts to a JSON corpus file",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of posts to generate",
				Value:   1,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 1,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
