package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndParseToken(t *testing.T) {
	payerID := uuid.New()

	token, err := GenerateToken("test-secret", payerID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed != payerID {
		t.Fatalf("parsed payer id = %s, want %s", parsed, payerID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected an error for a token signed with another secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expected an error for an expired token")
	}
}
