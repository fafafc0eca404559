package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/readgate/internal/edge"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz, preview and reference HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is required (READGATE_SERVER_JWT_SECRET)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	previews, closePreviews, err := newPreviewFetcher(ctx)
	if err != nil {
		return err
	}
	defer closePreviews()

	svc, err := newQuizService(ctx, st, previews)
	if err != nil {
		return err
	}

	handler, err := edge.NewHandler(edge.Config{
		Quiz:            svc,
		Previews:        previews,
		Actions:         st.Actions(),
		Editorials:      st.Editorials(),
		JWTSecret:       cfg.Server.JWTSecret,
		QARatePerSecond: cfg.Server.QARatePerSecond,
		QABurst:         cfg.Server.QABurst,
		Log:             logger.Named("edge"),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving", zap.String("addr", cfg.Server.Addr), zap.String("base_path", edge.BasePath))
		fmt.Fprintf(cmd.OutOrStdout(), "Serving readgate API on http://%s%s (OpenAPI at /openapi.json, docs at /docs)\n", cfg.Server.Addr, edge.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
