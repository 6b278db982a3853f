package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/miochat-server/internal/bot"
	"github.com/vovakirdan/miochat-server/internal/completion"
	"github.com/vovakirdan/miochat-server/internal/config"
	"github.com/vovakirdan/miochat-server/internal/core"
	"github.com/vovakirdan/miochat-server/internal/history"
	"github.com/vovakirdan/miochat-server/internal/metrics"
	"github.com/vovakirdan/miochat-server/internal/presence"
	"github.com/vovakirdan/miochat-server/internal/reaction"
	transporthttp "github.com/vovakirdan/miochat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	bots            *bot.Dispatcher
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	registry := presence.NewRegistry()
	reactions := reaction.NewStore()
	metrics.WatchState(reg, registry.Count, reactions.Len)

	var completer completion.Completer
	if c := completion.NewOpenAI(completion.OpenAIConfig{
		APIKey:     cfg.Bot.APIKey,
		Model:      cfg.Bot.Model,
		BaseURL:    cfg.Bot.BaseURL,
		MaxRetries: 2,
	}); c != nil {
		completer = c
		logger.Info().Str("model", c.Model()).Msg("bot personas enabled")
	} else {
		logger.Warn().Msg("no completion api key configured, bot mentions are inert")
	}
	bots := bot.NewDispatcher(completer, bot.DefaultPersonas(), logger, m)

	hub := core.NewHub(core.Options{
		Registry:   registry,
		Ledger:     history.NewLedger[core.Message](cfg.History.Limit),
		Reactions:  reactions,
		Bots:       bots,
		SystemName: cfg.SystemName,
		Logger:     logger,
		Metrics:    m,
	})
	server := transporthttp.NewServer(hub, cfg, logger, reg)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		bots:            bots,
		log:             logger,
	}
}

// Addr returns the address the HTTP server listens on.
func (a *App) Addr() string {
	return a.server.Addr
}

// BotsEnabled reports whether bot mentions are answered.
func (a *App) BotsEnabled() bool {
	return a.bots.Enabled()
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(hubCtx)
		close(hubDone)
	}()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.stopHub(stopHub, hubDone)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.stopHub(stopHub, hubDone)
			return err
		}

		a.stopHub(stopHub, hubDone)
		return <-serverErr
	}
}

// stopHub cancels the hub, which aborts in-flight bot requests, and waits for it to drain.
func (a *App) stopHub(cancel context.CancelFunc, done <-chan struct{}) {
	cancel()
	select {
	case <-done:
		a.log.Info().Msg("hub stopped")
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop before shutdown timeout")
	}
}
