package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cruxstack/email-trust-filter-go/internal/api"
	"github.com/cruxstack/email-trust-filter-go/internal/config"
	"github.com/cruxstack/email-trust-filter-go/internal/filter"
)

var (
	cfg     *config.Config
	handler *api.Handler
)

func Handler(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if cfg.DebugMode {
		evtJson, err := json.Marshal(event)
		if err != nil {
			slog.ErrorContext(ctx, "issue marshalling event", "error", err)
		}
		slog.DebugContext(ctx, "received event", "event", string(evtJson))
	}

	return handler.Handle(ctx, event)
}

func main() {
	var err error
	cfg, err = config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.AppLogLevel})))

	f, err := filter.NewFromConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to init email filter", "error", err)
		os.Exit(1)
	}
	handler = &api.Handler{Evaluator: f}

	lambda.Start(Handler)
}
