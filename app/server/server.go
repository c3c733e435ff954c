package server

import (
	"context"
	"fmt"
	"log/slog"

	"docchat/app/api"
	"docchat/chunker"
	"docchat/config"
	"docchat/loader"
	"docchat/model"
	"docchat/service"
	"docchat/store"

	"github.com/gofiber/fiber/v2"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	app    *fiber.App
	store  *store.PostgresStore
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Run() error {
	ctx := context.Background()

	pool, err := store.NewPostgresStore(ctx, s.cfg.PostgresConnStr(), s.cfg.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("error to connect to Postgres database: %w", err)
	}
	s.store = pool

	if err := pool.Init(ctx); err != nil {
		return fmt.Errorf("error to create tables: %w", err)
	}

	chunkr, err := chunker.New(s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}

	var (
		embedder  = model.NewOllamaEmbedder(s.cfg.EmbeddingURL, s.cfg.EmbeddingModel, s.cfg.EmbeddingDim, s.cfg.ProviderTimeout)
		generator = model.NewOllamaGenerator(s.cfg.LLMURL, s.cfg.LLMModel, s.cfg.ProviderTimeout)
		docLoader = loader.New(s.cfg.ProviderTimeout)

		processor = service.NewProcessor(pool, docLoader, chunkr, embedder)
		chat      = service.NewChat(pool, embedder, generator, s.cfg.RetrievalK, s.cfg.MaxContextTokens)
		mcq       = service.NewMCQ(pool, embedder, generator)

		app            = fiber.New(fiberConfig)
		checkHandler   = api.NewCheckHandler()
		processHandler = api.NewProcessHandler(processor)
		chatHandler    = api.NewChatHandler(chat)
		mcqHandler     = api.NewMCQHandler(mcq)

		apiGroup = app.Group("/api")
	)

	app.Get("/health", checkHandler.HandleHealthy)
	apiGroup.Post("/documents/process", processHandler.HandleProcess)
	apiGroup.Post("/chat", chatHandler.HandleChat)
	apiGroup.Post("/mcq/generate", mcqHandler.HandleGenerate)

	s.app = app
	s.logger.Info("server starting", "addr", s.cfg.ServerAddr)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error to shutdown server", "error", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
	s.logger.Info("server stopped")
}
