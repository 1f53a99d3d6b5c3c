package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trenchwatch/internal/analysis"
	"trenchwatch/internal/cache"
	"trenchwatch/internal/config"
	"trenchwatch/internal/httpapi"
	"trenchwatch/internal/narrative"
	"trenchwatch/internal/pipeline"
	"trenchwatch/internal/signals"
	"trenchwatch/internal/source"
)

const (
	appName = "trenchwatch"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var configPath string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "trenchwatch - on-chain token trend analysis service",
		Version: version,
		Long:    "trenchwatch aggregates multi-timeframe trending data, scores token safety, and surfaces launch signals across chains",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML (defaults apply when empty)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the candidate discovery pipeline once and print results",
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, _ := cmd.Flags().GetString("chain")
			return runScan(configPath, chain)
		},
	}
	scanCmd.Flags().String("chain", "sol", "Chain to scan (sol, eth, base, bsc)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

type services struct {
	cfg      *config.Config
	client   *source.Client
	analysis *analysis.Service
	signals  *signals.Service
	runner   *pipeline.Runner
	assessor *narrative.Assessor
}

func buildServices(configPath string) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	client := source.NewClient(source.Config{
		BaseURL:   cfg.Source.BaseURL,
		APIKey:    cfg.Source.APIKey,
		Timeout:   cfg.SourceTimeout(),
		RateLimit: cfg.Source.RateLimitRPS,
		Burst:     cfg.Source.Burst,
	})

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		store = cache.NewRedisStore(rdb, cfg.CacheTTL(), cfg.Cache.Redis.Prefix)
	default:
		store = cache.NewTTLStore(cfg.Cache.MaxEntries, cfg.CacheTTL())
	}
	cached := source.NewCachedFetcher(client, store)

	analysisSvc := analysis.NewService(cached)
	signalsSvc := signals.NewService(cached)
	runner := pipeline.NewRunner(analysisSvc, signalsSvc)

	return &services{
		cfg:      cfg,
		client:   client,
		analysis: analysisSvc,
		signals:  signalsSvc,
		runner:   runner,
		assessor: buildAssessor(cfg),
	}, nil
}

func buildAssessor(cfg *config.Config) *narrative.Assessor {
	switch cfg.Narrative.Provider {
	case "anthropic":
		if cfg.Narrative.AnthropicKey == "" {
			log.Warn().Msg("ANTHROPIC_API_KEY not set, AI assessment disabled")
			return nil
		}
		return narrative.NewAssessor(narrative.NewAnthropicProvider(narrative.ProviderConfig{
			APIKey:    cfg.Narrative.AnthropicKey,
			Model:     cfg.Narrative.Model,
			MaxTokens: cfg.Narrative.MaxTokens,
		}))
	case "openai":
		if cfg.Narrative.OpenAIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set, AI assessment disabled")
			return nil
		}
		return narrative.NewAssessor(narrative.NewOpenAIProvider(narrative.ProviderConfig{
			APIKey:    cfg.Narrative.OpenAIKey,
			Model:     cfg.Narrative.Model,
			MaxTokens: cfg.Narrative.MaxTokens,
		}))
	default:
		log.Warn().Str("provider", cfg.Narrative.Provider).Msg("unknown narrative provider, AI assessment disabled")
		return nil
	}
}

func runServe(configPath string) error {
	svcs, err := buildServices(configPath)
	if err != nil {
		return err
	}
	cfg := svcs.cfg

	handlersCfg := httpapi.HandlersConfig{
		Analysis:   cfg.Analysis,
		Graduation: cfg.Signals.Graduation,
		EarlyGem:   cfg.Signals.EarlyGem,
		Momentum:   cfg.Signals.Momentum,
		Pipeline:   cfg.Pipeline,
	}

	// NarrativeAssessor is an interface, keep a typed nil out of it.
	var assessor httpapi.NarrativeAssessor
	if svcs.assessor != nil {
		assessor = svcs.assessor
	}
	handlers := httpapi.NewHandlers(svcs.analysis, svcs.signals, svcs.runner, assessor, svcs.client, handlersCfg)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutS) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutS) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeoutS) * time.Second,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}, handlers)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runScan(configPath, chain string) error {
	svcs, err := buildServices(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	log.Info().Str("chain", chain).Msg("starting scan")
	candidates, err := svcs.runner.Run(ctx, chain, svcs.cfg.Pipeline)
	if err != nil {
		return err
	}
	log.Info().Int("candidates", len(candidates)).Msg("scan complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(candidates)
}
