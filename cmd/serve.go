package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akashicode/solvesafe/internal/config"
	"github.com/akashicode/solvesafe/internal/display"
	"github.com/akashicode/solvesafe/internal/llm"
	"github.com/akashicode/solvesafe/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SolveSafe HTTP server",
	Long: `Starts the HTTP server on port 5000 (or $PORT).

Endpoints:
  POST /upload          - multipart "pdf" plus enrollment, name, batch
  GET  /download/{id}   - rendered solution for a submission id
  GET  /health          - liveness check

The generation provider is configured with environment variables:
  GOOGLE_API_KEY                          (gemini, default)
  LLM_BASE_URL, LLM_API_KEY, LLM_MODEL    (openai-compatible)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 5000, "Port to listen on")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Submissions:    a.orch,
		Logger:         a.log,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ConsoleLog:     cfg.Log.Format == "console",
	})
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	if cfg.Log.Format == "console" {
		display.PrintBanner(os.Stdout, bannerInfo(cfg, a.gen))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown failed")
		if err := httpServer.Close(); err != nil {
			a.log.Error().Err(err).Msg("forced shutdown failed")
		}
	}
	a.log.Info().Msg("server stopped")
	return nil
}

func bannerInfo(cfg *config.Config, gen llm.Generator) display.ServerInfo {
	info := display.ServerInfo{
		Version:        version,
		Provider:       cfg.Generation.Provider,
		Model:          llm.ModelName(gen),
		MaxAttempts:    cfg.Retry.MaxAttempts,
		StoreURL:       cfg.Store.URL,
		UploadDir:      cfg.Storage.UploadDir,
		SolutionsDir:   cfg.Storage.SolutionsDir,
		Port:           cfg.Server.Port,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	switch cfg.Generation.Provider {
	case config.ProviderOpenAI:
		info.Endpoint = cfg.Generation.OpenAI.BaseURL
	case config.ProviderGemini:
		info.Endpoint = cfg.Generation.Gemini.BaseURL
	}
	return info
}
