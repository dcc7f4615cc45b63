package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("unit-test-secret")

	token, err := m.Generate(42, "dj-test", "admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "dj-test" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Generate(1, "u", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b").Parse(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	m := NewTokenManager("unit-test-secret")
	for _, tok := range []string{"", "not-a-token", strings.Repeat("a.", 3)} {
		if _, err := m.Parse(tok); err == nil {
			t.Errorf("Parse(%q) should fail", tok)
		}
	}
}
