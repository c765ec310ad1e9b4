// Command devserver runs whist tables over plain websockets, without Nakama.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"whist/internal/app"
	"whist/internal/auth"
	"whist/internal/bot"
	"whist/internal/config"
	"whist/internal/domain"
	"whist/internal/logging"
	"whist/internal/ports/memory"
	"whist/internal/ports/ws"
)

func main() {
	configPath := flag.String("config", "data/whist.json", "game config file")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	zl, err := newZap(*debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = zl.Sync() }()
	logger := logging.NewZapLogger(zl)

	if err := config.LoadGameConfig(*configPath); err != nil {
		logger.Warn("Game config not loaded, using defaults: %v", err)
	}
	config.ApplyEnv(environ())

	if err := bot.LoadIdentities(config.GetIdentitiesPath()); err != nil {
		logger.Warn("Bot identities not loaded, using generated names: %v", err)
	}
	if script := config.GetBotScriptPath(); script != "" {
		if err := bot.LoadScript(script); err != nil {
			zl.Fatal("failed to load bot script", zap.Error(err))
		}
	}
	leadRule, err := domain.ParseLeadRule(config.GetFirstLead())
	if err != nil {
		zl.Fatal("invalid game config", zap.Error(err))
	}

	results := &memory.Results{}
	svc := app.NewService(logger.WithField("component", "whist"),
		app.WithStore(memory.NewStore()),
		app.WithResults(results),
		app.WithGameOptions(domain.Options{FirstDealer: config.GetFirstDealer(), LeadRule: leadRule}),
		app.WithBotLevel(config.GetDefaultBotLevel()),
	)

	var verifier *auth.Verifier
	if secret, issuer, audience, ttl := config.GetAuth(); secret != "" {
		if verifier, err = auth.NewVerifier(secret, issuer, audience, ttl); err != nil {
			zl.Fatal("failed to create token verifier", zap.Error(err))
		}
	} else {
		logger.Warn("No %s set; players identify with ?player=.", config.EnvJWTSecret)
	}

	addr, origins := config.GetDevServer()
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(svc, verifier, logger.WithField("component", "ws"), origins))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           cors(origins, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("devserver listening", zap.String("addr", addr), zap.Strings("origins", origins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("shutdown", zap.Error(err))
	}
	zl.Info("devserver stopped", zap.Int("games_recorded", len(results.Summaries())))
}

func newZap(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
