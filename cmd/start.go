/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/foodchat-be/config"
	"github.com/tieubaoca/foodchat-be/handler"
	"github.com/tieubaoca/foodchat-be/logger"
	"github.com/tieubaoca/foodchat-be/service"
	"go.uber.org/zap"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat server",
	Long:  `Starts a server that streams cooking-assistant replies over HTTP and websocket`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("port", "p", "", "port to listen on")
	startServerCmd.Flags().String("provider", "", "chat completion provider: openai, gemini or ollama")
	startServerCmd.Flags().StringP("model", "m", "", "model to use for the chat completion provider")
	startServerCmd.Flags().StringP("ai-endpoint", "u", "", "base URL of the chat completion API")
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	aiService, err := newAIService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s service: %w", cfg.Provider, err)
	}
	if closer, ok := aiService.(io.Closer); ok {
		defer closer.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(
		service.NewStreamRelay(aiService, log),
		handler.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			MaxBodyBytes:   cfg.MaxBodyBytes,
		},
		log,
	)

	// No WriteTimeout: a completion may stream for longer than any fixed bound.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newAIService(ctx context.Context, cfg *config.Config) (service.AIService, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model), nil
	case config.ProviderGemini:
		return service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.ProviderOllama:
		return service.NewOllamaService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
