package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/app"
	"whist/internal/auth"
	"whist/internal/bot"
	"whist/internal/config"
	"whist/internal/domain"
)

const (
	envConfigPath     = "whist_config_path"
	defaultConfigPath = "data/whist.json"
)

// InitModule wires RPCs, hooks and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	path := defaultConfigPath
	if p, ok := env[envConfigPath]; ok && p != "" {
		path = p
	}
	if err := config.LoadGameConfig(path); err != nil {
		logger.Warn("Game config not loaded, using defaults: %v", err)
	}
	config.ApplyEnv(env)

	if err := bot.LoadIdentities(config.GetIdentitiesPath()); err != nil {
		logger.Warn("Bot identities not loaded, using generated names: %v", err)
	}
	if script := config.GetBotScriptPath(); script != "" {
		if err := bot.LoadScript(script); err != nil {
			return fmt.Errorf("failed to load bot script: %w", err)
		}
	}

	leadRule, err := domain.ParseLeadRule(config.GetFirstLead())
	if err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	records := NewNakamaRecordAdapter(nk)
	svc := app.NewService(logger.WithField("component", "whist"),
		app.WithStore(NewNakamaGameStore(nk)),
		app.WithResults(records),
		app.WithGameOptions(domain.Options{FirstDealer: config.GetFirstDealer(), LeadRule: leadRule}),
		app.WithBotLevel(config.GetDefaultBotLevel()),
	)

	var verifier *auth.Verifier
	if secret, issuer, audience, ttl := config.GetAuth(); secret != "" {
		if verifier, err = auth.NewVerifier(secret, issuer, audience, ttl); err != nil {
			return fmt.Errorf("failed to create token verifier: %w", err)
		}
	} else {
		logger.Warn("No %s set; token exchange and table tokens are disabled.", config.EnvJWTSecret)
	}

	if err := RegisterRPCs(initializer, &rpcHandlers{app: svc, records: records, tokens: verifier}); err != nil {
		return err
	}

	hooks := &authHooks{verifier: verifier}
	if err := initializer.RegisterBeforeAuthenticateCustom(hooks.BeforeAuthenticateCustom); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateCustom(hooks.AfterAuthenticateCustom); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	accounts := NewNakamaAccountAdapter(nk)
	if err := initializer.RegisterMatch(MatchNameWhist, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(svc, accounts), nil
	}); err != nil {
		return err
	}

	logger.Info("Whist Go module loaded.")
	return nil
}
