package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"promptcraft/internal/config"
	"promptcraft/internal/logger"
	"promptcraft/internal/model"
	"promptcraft/internal/service"
)

// Sends one sample answer set to the generation service and prints what the
// normalizer makes of the reply.
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.App.Environment, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	answers := model.AnswerSet{
		model.FieldTask:     "Write a launch announcement for a note-taking app",
		model.FieldAudience: "Students and researchers",
		model.FieldTone:     "Friendly and confident",
		model.FieldInclude:  "Offline sync and the free student plan",
		model.FieldAvoid:    "Jargon and competitor names",
		model.FieldFormat:   "Short blog post with a headline",
		model.FieldContext:  "Launching next Monday",
	}
	req := model.NewPromptRequest(answers)

	ctx, cancel := requestContext(cfg.Generator)
	defer cancel()

	client := service.NewGeneratorClient(cfg.Generator, log)
	start := time.Now()
	raw, err := client.Submit(ctx, req)
	if err != nil {
		log.Fatal("probe failed", "endpoint", cfg.Generator.Endpoint, "error", err)
	}

	result := service.NewNormalizer().Normalize(raw, req)
	log.Info("probe finished",
		"endpoint", cfg.Generator.Endpoint,
		"duration", time.Since(start),
		"raw_bytes", len(raw),
		"diagnostic", result.Diagnostic,
	)
	fmt.Println(result.Text)
}

// requestContext allows a little longer than the client's own timeout.
// A zero TimeoutMS means no timeout, so the request waits as long as it takes.
func requestContext(cfg *config.GeneratorConfig) (context.Context, context.CancelFunc) {
	if cfg.TimeoutMS <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), cfg.Timeout()+5*time.Second)
}
