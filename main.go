package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"voice_agent/internal/catalog"
	"voice_agent/internal/config"
	"voice_agent/internal/directory"
	"voice_agent/internal/facts"
	"voice_agent/internal/gateway"
	"voice_agent/internal/llm"
	"voice_agent/internal/logger"
	"voice_agent/internal/orchestrator"
	"voice_agent/internal/server"
	"voice_agent/internal/services"
	"voice_agent/internal/session"
	"voice_agent/internal/storage"
	"voice_agent/internal/tools"
	"voice_agent/internal/transcribe"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("voice agent stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		client, err := storage.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
	}

	dir, err := newDirectory(cfg, redisClient)
	if err != nil {
		return err
	}
	sessions := session.NewManager(newSessionRepository(cfg, redisClient), dir, cfg.Session.HistoryWindow)

	cat, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	var chatModel model.BaseChatModel
	if cfg.NeedsChatModel() {
		chatModel, err = llm.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		logger.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("chat model ready")
	}

	extractor, err := newExtractor(ctx, cfg, chatModel)
	if err != nil {
		return err
	}

	booking := services.NewBookingService(dir, cat)
	availability := services.NewAvailabilityService()

	gw, toolsURL, err := newGateway(ctx, cfg, chatModel, booking, availability)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Deps{
		Sessions:  sessions,
		Directory: dir,
		Catalog:   cat,
		Extractor: extractor,
		Gateway:   gw,
		ToolsURL:  toolsURL,
	})

	srv := server.New(server.Deps{
		Orchestrator: orch,
		Catalog:      cat,
		Gateway:      gw,
		Transcriber:  transcribe.NewWhisper(cfg.Transcribe),
		Booking:      booking,
		Availability: availability,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("gateway", cfg.Gateway.Backend).
			Str("extraction", cfg.Extraction.Mode).
			Bool("api_configured", gw.Configured()).
			Msg("voice agent listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newDirectory(cfg *config.Config, client *redis.Client) (directory.Directory, error) {
	switch strings.ToLower(cfg.Directory.Backend) {
	case "redis":
		return directory.NewRedis(client), nil
	case "file":
		return directory.NewFile(cfg.Directory.FilePath, cfg.Directory.LockTimeout)
	default:
		return directory.NewMemory(), nil
	}
}

func newSessionRepository(cfg *config.Config, client *redis.Client) session.Repository {
	if strings.EqualFold(cfg.Session.Backend, "redis") {
		return session.NewRedisRepository(client, cfg.Session.TTL)
	}
	return session.NewMemoryRepository()
}

func newCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.FilePath == "" {
		return catalog.New(cfg.Catalog.DefaultBusiness), nil
	}

	cat, err := catalog.Load(cfg.Catalog.FilePath, cfg.Catalog.DefaultBusiness)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Watch {
		if err := cat.Watch(ctx); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func newExtractor(ctx context.Context, cfg *config.Config, chatModel model.BaseChatModel) (facts.Extractor, error) {
	deterministic := facts.NewDeterministic(cfg.Extraction.AssumedYear)

	mode := strings.ToLower(cfg.Extraction.Mode)
	if mode == "deterministic" {
		return deterministic, nil
	}

	llmExtractor, err := facts.NewLLM(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	if mode == "hybrid" {
		return &facts.Hybrid{Fast: deterministic, Slow: llmExtractor}, nil
	}
	return llmExtractor, nil
}

// newGateway returns the engine client and the base URL function tools are
// declared under.
func newGateway(ctx context.Context, cfg *config.Config, chatModel model.BaseChatModel,
	booking *services.BookingService, availability *services.AvailabilityService) (gateway.Gateway, string, error) {

	if !strings.EqualFold(cfg.Gateway.Backend, "chatmodel") {
		return gateway.NewRunsClient(cfg.Gateway), cfg.Server.PublicURL, nil
	}

	businessTools, err := tools.New(booking, availability)
	if err != nil {
		return nil, "", err
	}
	gw, err := gateway.NewChatModel(ctx, chatModel, businessTools...)
	if err != nil {
		return nil, "", err
	}

	// tools run in-process, the URL only has to be non-empty
	toolsURL := cfg.Server.PublicURL
	if toolsURL == "" {
		toolsURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	return gw, toolsURL, nil
}
