package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		ActorTokenSecret: "secret",
		ActorTokenIssuer: "rxguard-gateway",
		ActorTokenTTL:    10 * time.Minute,
	}
}

func TestMintAndParseActorToken(t *testing.T) {
	cfg := testAuthConfig()
	actorID := uuid.New()

	token, err := MintActorToken(cfg, time.Now().UTC(), actorID, "pharmacist")
	if err != nil {
		t.Fatalf("mint actor token: %v", err)
	}
	claims, err := ParseActorToken(cfg, token)
	if err != nil {
		t.Fatalf("parse actor token: %v", err)
	}
	if claims.ActorID != actorID {
		t.Fatalf("expected actor %s, got %s", actorID, claims.ActorID)
	}
	if claims.Role != "pharmacist" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.Issuer != cfg.ActorTokenIssuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.Subject != actorID.String() {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestParseActorTokenRejectsExpired(t *testing.T) {
	cfg := testAuthConfig()
	token, err := MintActorToken(cfg, time.Now().Add(-time.Hour), uuid.New(), "")
	if err != nil {
		t.Fatalf("mint actor token: %v", err)
	}
	if _, err := ParseActorToken(cfg, token); err == nil {
		t.Fatal("expected expired token error")
	}
}

func TestParseActorTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testAuthConfig()
	token, err := MintActorToken(cfg, time.Now(), uuid.New(), "")
	if err != nil {
		t.Fatalf("mint actor token: %v", err)
	}

	wrongSecret := cfg
	wrongSecret.ActorTokenSecret = "other"
	if _, err := ParseActorToken(wrongSecret, token); err == nil {
		t.Fatal("expected signature error")
	}

	wrongIssuer := cfg
	wrongIssuer.ActorTokenIssuer = "someone-else"
	if _, err := ParseActorToken(wrongIssuer, token); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestActorTokensRequireSecret(t *testing.T) {
	cfg := config.AuthConfig{}
	if _, err := MintActorToken(cfg, time.Now(), uuid.New(), ""); err == nil {
		t.Fatal("expected mint error without secret")
	}
	if _, err := ParseActorToken(cfg, "token"); err == nil {
		t.Fatal("expected parse error without secret")
	}
	if _, err := MintActorToken(testAuthConfig(), time.Now(), uuid.Nil, ""); err == nil {
		t.Fatal("expected error for nil actor")
	}
}
