package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"whist/internal/app/onboarding"
	"whist/internal/auth"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// authHooks exchanges externally issued tokens for Nakama custom accounts and
// onboards new users.
type authHooks struct {
	verifier *auth.Verifier // nil disables token exchange
}

// BeforeAuthenticateCustom treats the custom id as a signed token and replaces
// it with the verified subject, so one subject always maps to one account.
func (h *authHooks) BeforeAuthenticateCustom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, in *api.AuthenticateCustomRequest) (*api.AuthenticateCustomRequest, error) {
	if h.verifier == nil {
		return in, nil
	}
	if in.GetAccount() == nil || in.GetAccount().GetId() == "" {
		return nil, runtime.NewError("Token required", codeInvalidArgument)
	}

	identity, err := h.verifier.Verify(in.GetAccount().GetId())
	if err != nil {
		logger.Warn("BeforeAuthenticateCustom: Rejected token: %v", err)
		return nil, runtime.NewError("Invalid token", codeUnauthenticated)
	}
	in.Account.Id = identity.Subject
	return in, nil
}

// AfterAuthenticateCustom onboards accounts created through token exchange.
func (h *authHooks) AfterAuthenticateCustom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateCustomRequest) error {
	return onboardIfCreated(ctx, logger, nk, out, "AfterAuthenticateCustom")
}

// AfterAuthenticateDevice is triggered after an account is authenticated.
// It gives new accounts a table name and an empty player record.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	return onboardIfCreated(ctx, logger, nk, out, "AfterAuthenticateDevice")
}

func onboardIfCreated(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, out *api.Session, hook string) error {
	// Check if the account was just created
	if !out.Created {
		return nil
	}

	userID := ""
	if ctxUserID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); ok {
		userID = ctxUserID
	}
	if userID == "" {
		// Resolve User ID from the session token by parsing the JWT payload manually.
		resolvedID, err := extractUserIDFromToken(out.Token)
		if err != nil {
			logger.Error("%s: Failed to extract user ID from token: %v", hook, err)
			return err
		}
		userID = resolvedID
	}

	logger.Info("Onboarding new user %s", userID)

	service := onboarding.NewService(NewNakamaAccountAdapter(nk), NewNakamaRecordAdapter(nk), nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if result.ProfileUpdateErr != nil {
		logger.Warn("%s: Failed to update profile for user %s: %v", hook, userID, result.ProfileUpdateErr)
	}
	if err != nil {
		logger.Error("%s: Onboarding failed for user %s: %v", hook, userID, err)
		return err
	}
	if !result.RecordCreated {
		logger.Info("%s: Player record already exists for user %s", hook, userID)
	}
	return nil
}

// extractUserIDFromToken reads the uid claim of a Nakama session token. The
// token was just minted by the server, so the signature is not checked.
func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("token claims missing uid")
	}
	return uid, nil
}
