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
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/api"
	"github.com/mindspark-app/mindspark/internal/chat"
	"github.com/mindspark-app/mindspark/internal/dashboard"
	"github.com/mindspark-app/mindspark/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and browser dashboard",
	Long: `Starts the MindSpark server with the REST API under /api, the browser
dashboard at / and the streaming chat websocket at /ws/chat.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("allow-all-origins", false, "accept cross-origin requests from any origin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		a.cfg.Server.Port = port
	}
	if all, _ := cmd.Flags().GetBool("allow-all-origins"); all {
		a.cfg.Server.AllowAllOrigins = true
	}

	// Without a provider the library and dashboard still work; AI routes
	// answer 503.
	var chats *chat.Manager
	if err := a.connect(); err != nil {
		a.logger.Warn("AI features disabled", zap.Error(err))
	} else {
		chats = a.chatManager()
	}

	srv := server.New(server.Config{
		Port:     a.cfg.Server.Port,
		AllowAll: a.cfg.Server.AllowAllOrigins,
	}, a.logger)

	r := srv.Router()
	api.RegisterRoutes(r, api.Deps{
		Assistant:       a.assistant,
		Library:         a.library,
		Languages:       a.cfg.Languages,
		DefaultLanguage: a.cfg.DefaultLanguage,
		MaxImageBytes:   a.cfg.MaxImageBytes,
		Logger:          a.logger,
	})
	dashboard.New(a.library, chats, a.logger).RegisterRoutes(r)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "mindspark %s serving on http://localhost%s\n", Version, srv.Addr())
	a.logger.Info("server configured",
		zap.String("provider", string(a.cfg.Provider)),
		zap.String("model", a.cfg.Model),
		zap.String("storage", string(a.cfg.Storage.Backend)),
		zap.Int("saved", len(a.library.List(ctx))))

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
