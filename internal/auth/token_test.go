package auth

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

const testSecret = "test-signing-secret"
const testAudience = "farconnect.social"

func TestIssueAndParseRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, testAudience, 24*time.Hour)

	token, expiresAt, err := tm.Issue("user-1", 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	remaining := time.Until(expiresAt)
	if remaining < 23*time.Hour || remaining > 24*time.Hour {
		t.Fatalf("expected ~24h lifetime, got %s", remaining)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if claims.FID != 42 {
		t.Fatalf("fid mismatch: %d", claims.FID)
	}
	if claims.Role != RoleAuthenticatedUser {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != testAudience {
		t.Fatalf("audience mismatch: %v", claims.Audience)
	}
}

func TestIssueWithoutSecretIsConfigError(t *testing.T) {
	tm := NewTokenManager("", testAudience, 24*time.Hour)

	_, _, err := tm.Issue("user-1", 42)
	if err == nil {
		t.Fatal("expected error")
	}

	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeSigningConfigMissing {
		t.Fatalf("expected SIGNING_CONFIG_MISSING, got %v", err)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	issuer := NewTokenManager(testSecret, "other.app", 24*time.Hour)
	token, _, err := issuer.Issue("user-1", 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	consumer := NewTokenManager(testSecret, testAudience, 24*time.Hour)
	if _, err := consumer.ParseToken(token); err == nil {
		t.Fatal("token scoped to another audience must be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("attacker-secret", testAudience, 24*time.Hour)
	token, _, err := issuer.Issue("user-1", 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	consumer := NewTokenManager(testSecret, testAudience, 24*time.Hour)
	if _, err := consumer.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, testAudience, 24*time.Hour)
	tm.ttl = -time.Hour
	token, _, err := tm.Issue("user-1", 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestSubjectScoping(t *testing.T) {
	tm := NewTokenManager(testSecret, testAudience, 24*time.Hour)
	token, _, err := tm.Issue("user-s1", 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// A consumer authorizing subject S2 must see the mismatch.
	if claims.Subject == "user-s2" {
		t.Fatal("token issued for S1 must not carry S2's subject")
	}
}

func TestTTLSeconds(t *testing.T) {
	tm := NewTokenManager(testSecret, testAudience, 24*time.Hour)
	if got := tm.TTLSeconds(); got != 86400 {
		t.Fatalf("expected 86400, got %d", got)
	}
}
