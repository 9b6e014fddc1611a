package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rbacblog/internal/config"
	"rbacblog/internal/http/handlers"
	applog "rbacblog/internal/log"
	"rbacblog/internal/mail"
	"rbacblog/internal/repos"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Fatal("config.load", err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			applog.Error(nil, "log.file.open", err, map[string]any{"path": cfg.LogFile})
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		applog.Fatal("db.open", err)
	}
	defer db.Close()

	mailer := mail.New(cfg.SMTP)
	if _, ok := mailer.(mail.LogSender); ok {
		applog.Info(nil, "mail.disabled", map[string]any{"reason": "SMTP_HOST not set, messages are logged"})
	}

	deps, err := handlers.NewDeps(db, cfg, mailer)
	if err != nil {
		applog.Fatal("deps.init", err)
	}
	app := handlers.NewApp(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		applog.Info(nil, "server.start", cfg.Fields())
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if err != nil {
			applog.Error(nil, "server.listen", err, nil)
		}
	case <-ctx.Done():
		applog.Info(nil, "server.shutdown", nil)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			applog.Error(nil, "server.shutdown", err, nil)
		}
	}

	// Let queued verification mails finish before the database closes.
	deps.Auth.Wait()
}
