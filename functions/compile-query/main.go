package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/boolquery"
	"github.com/letmevibethatforyou/searchql/elastic"
	"github.com/letmevibethatforyou/searchql/internal/config"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// Response is the body returned for a compile request.
type Response struct {
	RequestID string         `json:"request_id"`
	Query     map[string]any `json:"query,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Handler answers API Gateway compile requests.
type Handler struct {
	compiler *elastic.Compiler
	logger   *slog.Logger
}

// NewHandler creates a Handler that compiles with compiler and logs to logger.
func NewHandler(compiler *elastic.Compiler, logger *slog.Logger) *Handler {
	return &Handler{compiler: compiler, logger: logger}
}

// HandleRequest compiles the expression tree in the request body and returns
// the search request body for it.
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := ksuid.New().String()
	logger := h.logger.With("request_id", requestID)

	node, err := searchql.ParseJSON([]byte(req.Body))
	if err != nil {
		logger.WarnContext(ctx, "Rejected expression", "error", err)
		return respond(http.StatusBadRequest, Response{RequestID: requestID, Error: err.Error()})
	}

	q, err := h.compiler.Compile(node)
	if err != nil {
		logger.WarnContext(ctx, "Failed to compile expression", "error", err)
		return respond(statusFor(err), Response{RequestID: requestID, Error: err.Error()})
	}

	logger.InfoContext(ctx, "Compiled expression", "absent", q == nil)
	return respond(http.StatusOK, Response{RequestID: requestID, Query: boolquery.Request(q)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, searchql.ErrMalformedRange),
		errors.Is(err, searchql.ErrInvalidExpression),
		errors.Is(err, searchql.ErrUnsupportedNominator):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respond(status int, body Response) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed to marshal response")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := &cli.App{
		Name:  "compile-query",
		Usage: "Compile query expression trees into search request bodies",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Usage:   "YAML configuration file",
				EnvVars: []string{"SEARCHQL_CONFIG"},
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
	cfg, err := config.Load(c.Path("config"))
	if err != nil {
		return err
	}

	cfg.Logger.Type = "json"
	logger, err := cfg.Logger.Logger(os.Stdout)
	if err != nil {
		return err
	}

	handler := NewHandler(elastic.New(cfg.CompilerOptions()...), logger)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		return errors.New("compile-query must run inside AWS Lambda")
	}
	lambda.Start(handler.HandleRequest)
	return nil
}
