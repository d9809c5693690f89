// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/QuorumStack/QuorumAdvisor/pkg/logging"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/agents"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/datatypes"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/pipeline"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/recorder"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/retrieval"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/routes"
	"github.com/QuorumStack/QuorumAdvisor/services/llm"
	"github.com/QuorumStack/QuorumAdvisor/services/risk_engine"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

const serviceName = "advisor-service"

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "quorum-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient builds the vector store client from WEAVIATE_SERVICE_URL.
// Exits the process on a missing or broken store: the advisor has no
// lightweight mode, every analysis run needs retrieval.
func newWeaviateClient() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Trim quotes and whitespace in case the container runtime passes them
	// literally.
	weaviateURL = strings.Trim(weaviateURL, "\"' ")
	if weaviateURL == "" {
		log.Fatal("WEAVIATE_SERVICE_URL is required")
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("WEAVIATE_SERVICE_URL is invalid: %q", weaviateURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}

	vectorizer := os.Getenv("WEAVIATE_VECTORIZER")
	if vectorizer == "" {
		vectorizer = "text2vec-transformers"
	}
	if err := datatypes.EnsureAdvisorSchema(context.Background(), client, vectorizer); err != nil {
		log.Fatalf("Failed to ensure Weaviate schema: %v", err)
	}
	return client
}

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		LogDir:  os.Getenv("ADVISOR_LOG_DIR"),
		Service: "advisor",
		JSON:    true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	weaviateClient := newWeaviateClient()

	llmClient, err := llm.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	var docSource retrieval.DocumentSource
	if source := retrieval.NewDocstoreSourceFromEnv(); source != nil {
		docSource = source
	} else {
		slog.Info("DOCSTORE_URL not set, corpora are populated via the ingest API only")
	}
	store := retrieval.NewWeaviateStore(weaviateClient, docSource, retrieval.StoreConfig{})

	riskEngine, err := risk_engine.NewRiskEngine()
	if err != nil {
		log.Fatalf("Failed to initialize risk engine: %v", err)
	}

	var resultRecorder recorder.ResultRecorder
	if notion, err := recorder.NewNotionRecorder(); err != nil {
		slog.Info("Result recording disabled", "reason", err)
	} else {
		resultRecorder = notion
	}

	router, err := agents.NewRouter(llmClient)
	if err != nil {
		log.Fatalf("Failed to initialize router agent: %v", err)
	}
	reviewer, err := agents.NewRegulationReviewer(llmClient, store)
	if err != nil {
		log.Fatalf("Failed to initialize reviewer agent: %v", err)
	}
	auditor, err := agents.NewAuditor(llmClient, store)
	if err != nil {
		log.Fatalf("Failed to initialize auditor agent: %v", err)
	}
	coordinator, err := agents.NewCoordinator(llmClient)
	if err != nil {
		log.Fatalf("Failed to initialize coordinator agent: %v", err)
	}
	general, err := agents.NewGeneralResponder(llmClient)
	if err != nil {
		log.Fatalf("Failed to initialize general responder: %v", err)
	}

	p, err := pipeline.New(pipeline.Config{
		Router:      router,
		Reviewer:    reviewer,
		Auditor:     auditor,
		Coordinator: coordinator,
		General:     general,
		RiskEngine:  riskEngine,
		Recorder:    resultRecorder,
	})
	if err != nil {
		log.Fatalf("Failed to assemble pipeline: %v", err)
	}

	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	routes.SetupRoutes(engine, p, store, os.Getenv("ADVISOR_API_TOKEN"))

	port := os.Getenv("ADVISOR_PORT")
	if port == "" {
		port = "12310"
	}
	slog.Info("Starting the advisor server", "port", port)
	if err := engine.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
