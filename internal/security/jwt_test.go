package security

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndParseUserToken(t *testing.T) {
	token, errSign := SignUserToken("secret", time.Hour, 42, "pub-42", "a@example.com")
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}

	claims, errParse := ParseUserToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.PublicID != "pub-42" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	token, errSign := SignUserToken("secret", time.Hour, 42, "pub-42", "a@example.com")
	if errSign != nil {
		t.Fatalf("sign: %v", errSign)
	}
	if _, errParse := ParseUserToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseUserToken_Garbage(t *testing.T) {
	if _, errParse := ParseUserToken("secret", "not.a.token"); errParse == nil {
		t.Fatalf("expected error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, errHash := HashPassword("s3cret-pass")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("expected matching password accepted")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatch rejected")
	}
}
