package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/akowalczyk/voxtask/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the voxtask HTTP server",
	Long: `Start the HTTP server that drives the capture workflow: login,
transcription, suggestion review, and Todoist submission.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil || NewClients == nil {
			return fmt.Errorf("server not initialized")
		}

		srv := server.New(Config, Accounts, NewClients, Events)
		httpSrv := &http.Server{
			Addr:              Config.ListenAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("listening on %s\n", Config.ListenAddr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("running HTTP server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
