package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackjack-lite/apps/server/internal/api"
	"blackjack-lite/apps/server/internal/config"
	"blackjack-lite/apps/server/internal/gateway"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/counting"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := log.WithField("component", "server")

	cfg, err := config.Load(".env")
	if err != nil {
		entry.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(cfg.Level())

	systems := counting.Default()
	if cfg.SystemsFile != "" {
		if err := systems.LoadFromFile(cfg.SystemsFile); err != nil {
			entry.WithError(err).Fatal("failed to load counting systems")
		}
	}

	rules := blackjack.DefaultRules()
	if cfg.RulesFile != "" {
		rules, err = blackjack.LoadRules(cfg.RulesFile)
		if err != nil {
			entry.WithError(err).Fatal("failed to load rules")
		}
	}
	if _, err := systems.Get(rules.CountingSystem); err != nil {
		entry.WithError(err).Fatal("rules reference an unknown counting system")
	}

	engine, err := strategy.New(systems)
	if err != nil {
		entry.WithError(err).Fatal("strategy tables are incomplete")
	}

	lby := lobby.New(rules, systems, engine, cfg.MaxSessions, log)
	gw := gateway.New(lby, originChecker(cfg.AllowedOrigins), log)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewServer(lby, log,
			api.WithAllowedOrigins(cfg.AllowedOrigins),
			api.WithWebSocket(gw.HandleWebSocket),
		).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		entry.WithFields(logrus.Fields{
			"addr":            cfg.Addr,
			"counting_system": rules.CountingSystem,
			"num_decks":       rules.NumDecks,
			"systems":         systems.Count(),
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			entry.WithError(err).Fatal("failed to start")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		entry.WithError(err).Error("shutdown")
	}
	entry.Info("stopped")
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
