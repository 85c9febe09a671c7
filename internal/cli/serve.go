package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"valuecards/internal/config"
	"valuecards/internal/engine"
	"valuecards/internal/mail"
	"valuecards/internal/store"
	"valuecards/internal/web"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Run:   runServe,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (default: $VALUECARDS_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

func newLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := zcfg.Build()
	if err != nil {
		exitErr("build logger", err)
	}
	return log
}

func runServe(cmd *cobra.Command, args []string) {
	log := newLogger()
	defer log.Sync()

	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	eng := engine.New(st, log)
	mailer := mail.New(cfg.ResendAPIKey, cfg.EmailFrom, cfg.BaseURL, log)
	if cfg.ResendAPIKey == "" {
		log.Warn("RESEND_API_KEY not set, email delivery disabled")
	}

	handler, err := web.NewServer(eng, mailer, cfg.BaseURL, log)
	if err != nil {
		exitErr("build server", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("db", cfg.DBPath),
			zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		exitErr("serve", err)
	}
}
