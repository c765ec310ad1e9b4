package nakama

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"

	"whist/internal/auth"
)

func customRequest(id string) *api.AuthenticateCustomRequest {
	return &api.AuthenticateCustomRequest{Account: &api.AccountCustom{Id: id}}
}

func TestBeforeAuthenticateCustom(t *testing.T) {
	verifier, err := auth.NewVerifier("test-secret", "", "", time.Hour)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	hooks := &authHooks{verifier: verifier}

	token, err := verifier.Issue("player-42", "p42@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	out, err := hooks.BeforeAuthenticateCustom(context.Background(), noopLogger{}, nil, nil, customRequest(token))
	if err != nil {
		t.Fatalf("BeforeAuthenticateCustom: %v", err)
	}
	if out.GetAccount().GetId() != "player-42" {
		t.Fatalf("custom id = %q, want player-42", out.GetAccount().GetId())
	}

	if _, err := hooks.BeforeAuthenticateCustom(context.Background(), noopLogger{}, nil, nil, customRequest("not-a-token")); rpcErrorCode(t, err) != codeUnauthenticated {
		t.Fatalf("expected unauthenticated for a bad token, got %v", err)
	}
	if _, err := hooks.BeforeAuthenticateCustom(context.Background(), noopLogger{}, nil, nil, &api.AuthenticateCustomRequest{}); rpcErrorCode(t, err) != codeInvalidArgument {
		t.Fatalf("expected invalid argument without an account, got %v", err)
	}
}

func TestBeforeAuthenticateCustom_Disabled(t *testing.T) {
	in := customRequest("plain-custom-id")
	out, err := (&authHooks{}).BeforeAuthenticateCustom(context.Background(), noopLogger{}, nil, nil, in)
	if err != nil {
		t.Fatalf("BeforeAuthenticateCustom: %v", err)
	}
	if out.GetAccount().GetId() != "plain-custom-id" {
		t.Fatal("custom id must pass through when token exchange is disabled")
	}
}

func TestExtractUserIDFromToken(t *testing.T) {
	encode := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	header := encode(`{"alg":"HS256","typ":"JWT"}`)
	session, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": "user-9", "usn": "bob"}).SignedString([]byte("server-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "Valid", token: header + "." + encode(`{"uid":"user-1","usn":"alice"}`) + ".sig", want: "user-1"},
		{name: "SignedSession", token: session, want: "user-9"},
		{name: "EmptyUID", token: header + "." + encode(`{"uid":""}`) + ".sig", wantErr: true},
		{name: "MissingUID", token: header + "." + encode(`{"usn":"alice"}`) + ".sig", wantErr: true},
		{name: "BadEncoding", token: header + ".!!!.sig", wantErr: true},
		{name: "WrongShape", token: "abc", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := extractUserIDFromToken(test.token)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != test.want {
				t.Fatalf("extractUserIDFromToken() = %q, %v; want %q", got, err, test.want)
			}
		})
	}
}
