package main

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql/algolia"
	"github.com/letmevibethatforyou/searchql/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// Indexer writes documents to a search index.
type Indexer interface {
	BatchSaveObjects(ctx context.Context, indexName string, objects []map[string]interface{}) error
	BatchDeleteObjects(ctx context.Context, indexName string, objectIDs []string) error
}

// Handler mirrors DynamoDB stream changes into the search index.
type Handler struct {
	indexer Indexer
}

// NewHandler creates a Handler that writes through indexer.
func NewHandler(indexer Indexer) *Handler {
	return &Handler{indexer: indexer}
}

// change is the last stream operation seen for one document in a batch.
type change struct {
	object map[string]any
	remove bool
}

// indexChanges keeps the changes for one index in arrival order.
type indexChanges struct {
	order   []string
	changes map[string]change
}

func (c *indexChanges) set(id string, ch change) {
	if _, seen := c.changes[id]; !seen {
		c.order = append(c.order, id)
	}
	c.changes[id] = ch
}

// HandleDynamoDBEvent applies a batch of table changes to the search
// indexes. Multiple changes to the same document collapse to the last one.
func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e events.DynamoDBEvent) error {
	logger := slog.With("batch_id", ksuid.New().String())
	logger.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	pending := make(map[string]*indexChanges)
	for _, record := range e.Records {
		index, id, ch, ok := h.parseRecord(ctx, logger, record)
		if !ok {
			continue
		}
		ic, exists := pending[index]
		if !exists {
			ic = &indexChanges{changes: make(map[string]change)}
			pending[index] = ic
		}
		ic.set(id, ch)
	}

	indexes := make([]string, 0, len(pending))
	for index := range pending {
		indexes = append(indexes, index)
	}
	sort.Strings(indexes)

	for _, index := range indexes {
		if err := h.flush(ctx, logger, index, pending[index]); err != nil {
			logger.ErrorContext(ctx, "Error syncing index", "index", index, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) parseRecord(ctx context.Context, logger *slog.Logger, record events.DynamoDBEventRecord) (string, string, change, bool) {
	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
		if record.Change.NewImage == nil {
			logger.WarnContext(ctx, "No new image for insert/modify operation, skipping record", "event_id", record.EventID)
			return "", "", change{}, false
		}

		doc, err := ddb.UnmarshalStreamImage(record.Change.NewImage)
		if err != nil {
			logger.WarnContext(ctx, "Failed to unmarshal document, skipping", "event_id", record.EventID, "error", err)
			return "", "", change{}, false
		}
		if doc.ID == "" || doc.Index == "" {
			logger.WarnContext(ctx, "Missing ID (pk) or index (sk) in document, skipping record", "event_id", record.EventID)
			return "", "", change{}, false
		}
		if doc.Fields == nil {
			logger.WarnContext(ctx, "Missing object in document, skipping record", "id", doc.ID, "index", doc.Index)
			return "", "", change{}, false
		}
		return doc.Index, doc.ID, change{object: doc.Object()}, true

	case events.DynamoDBOperationTypeRemove:
		doc, err := ddb.UnmarshalStreamImage(record.Change.Keys)
		if err != nil {
			logger.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "event_id", record.EventID, "error", err)
			return "", "", change{}, false
		}
		if doc.ID == "" || doc.Index == "" {
			logger.WarnContext(ctx, "Missing ID or index in delete record, skipping record", "event_id", record.EventID)
			return "", "", change{}, false
		}
		return doc.Index, doc.ID, change{remove: true}, true

	default:
		logger.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return "", "", change{}, false
	}
}

func (h *Handler) flush(ctx context.Context, logger *slog.Logger, index string, ic *indexChanges) error {
	var (
		objects []map[string]interface{}
		deletes []string
	)
	for _, id := range ic.order {
		ch := ic.changes[id]
		if ch.remove {
			deletes = append(deletes, id)
		} else {
			objects = append(objects, ch.object)
		}
	}

	if len(objects) > 0 {
		logger.InfoContext(ctx, "Saving objects", "index", index, "count", len(objects))
		if err := h.indexer.BatchSaveObjects(ctx, index, objects); err != nil {
			return errors.Wrapf(err, "failed to save %d objects", len(objects))
		}
	}
	if len(deletes) > 0 {
		logger.InfoContext(ctx, "Deleting objects", "index", index, "count", len(deletes))
		if err := h.indexer.BatchDeleteObjects(ctx, index, deletes); err != nil {
			return errors.Wrapf(err, "failed to delete %d objects", len(deletes))
		}
	}
	return nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := &cli.App{
		Name:  "sync-index",
		Usage: "Sync DynamoDB stream events to the Algolia indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	algoliaAppID := c.String("algolia-app-id")
	algoliaAPIKey := c.String("algolia-api-key")

	var fetchSecrets algolia.FetchSecrets
	switch {
	case env != "":
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to load AWS config")
		}
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env)
	case algoliaAppID != "" && algoliaAPIKey != "":
		slog.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = algolia.StaticSecrets(algoliaAppID, algoliaAPIKey)
	default:
		slog.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = algolia.EnvSecrets()
	}

	handler := NewHandler(algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		return errors.New("sync-index must run inside AWS Lambda")
	}
	lambda.Start(handler.HandleDynamoDBEvent)
	return nil
}
