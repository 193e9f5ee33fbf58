package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	llmx "parley/agent/llm"
	"parley/agent/orchestrator"
	promptx "parley/agent/prompt"
	statex "parley/agent/state"
	"parley/server"
	"parley/service/stock"
	"parley/service/weather"

	configx "parley/pkg/config"
	_ "parley/pkg/logger/autoload"
)

const janitorInterval = 10 * time.Minute

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	prompts := promptx.LoadPromptSet()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	classifier, err := llmx.NewClassifier(*llmCfg, prompts.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("classifier init failed")
	}
	extractor, err := llmx.NewExtractor(ctx, *llmCfg, prompts)
	if err != nil {
		log.Fatal().Err(err).Msg("extractor init failed")
	}

	weatherClient, err := weather.NewClient(*configx.MustNew[weather.Config]("OPENWEATHER"))
	if err != nil {
		log.Fatal().Err(err).Msg("weather client init failed")
	}
	stockClient, err := stock.NewClient(*configx.MustNew[stock.Config]("TWELVEDATA"))
	if err != nil {
		log.Fatal().Err(err).Msg("stock client init failed")
	}

	store := statex.NewMemoryStore()
	store.StartJanitor(ctx, janitorInterval)

	agent, err := orchestrator.New(
		store,
		classifier,
		extractor,
		weatherClient,
		stockClient,
		*configx.MustNew[orchestrator.Config]("AGENT"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	srv, err := server.New(*configx.MustNew[server.Config]("SERVER"), agent)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	log.Info().Msg("service started")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
