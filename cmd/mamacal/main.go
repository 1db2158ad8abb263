package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"mamacal/internal/config"
	"mamacal/internal/ghsync"
	applog "mamacal/internal/log"
	"mamacal/internal/source"
	"mamacal/internal/store"
	"mamacal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		applog.SetLevel(applog.LevelDebug)
	}

	applog.Info("mamacal starting", "config_path", flags.configPath)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	applog.Info("effective config",
		"listen", conf.Listen,
		"lmp", conf.LMP,
		"refresh", conf.RefreshCron,
		"xlsx_url", conf.Source.XLSXURL,
		"json_url", conf.Source.JSONURL,
		"github", conf.GitHub.Owner+"/"+conf.GitHub.Repo,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st := store.New()
	loader := source.NewLoader(conf.Source.XLSXURL, conf.Source.JSONURL)

	// Initial load. A failed load is not fatal: the UI stays up with an
	// empty store and the error is surfaced in the log and on refresh.
	if events, err := loader.Load(ctx); err != nil {
		applog.Error("initial load failed", err)
	} else {
		st.ReplaceAll(events)
		applog.Info("initial load completed", "events", len(events))
	}

	// Scheduled refresh, same concern the e-paper build drives with a
	// cron expression.
	var sched *cron.Cron
	if conf.RefreshCron != "" {
		sched = cron.New()
		_, err := sched.AddFunc(conf.RefreshCron, func() {
			rctx, rcancel := context.WithTimeout(ctx, time.Minute)
			defer rcancel()
			events, err := loader.Load(rctx)
			if err != nil {
				applog.Error("scheduled refresh failed", err)
				return
			}
			st.ReplaceAll(events)
			applog.Info("scheduled refresh completed", "events", len(events))
		})
		if err != nil {
			applog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	syncer := ghsync.NewClient()
	server := web.NewServer(conf, flags.configPath, st, loader, syncer)

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	applog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	applog.Info("mamacal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "mamacal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
