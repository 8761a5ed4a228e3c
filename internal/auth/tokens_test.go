package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

const testSecret = "test-secret"

func testUser() models.User {
	return models.User{
		ID:   primitive.NewObjectID(),
		Name: "Agent Smith",
		Role: models.RoleAgent,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	user := testUser()
	signed, err := SignAccessToken(testSecret, user, 15*time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken failed: %v", err)
	}

	claims, err := ParseAccessToken(testSecret, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID.Hex(), claims.UserID.Hex())
	}
	if claims.Role != models.RoleAgent || claims.Name != "Agent Smith" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	signed, err := SignAccessToken(testSecret, testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken failed: %v", err)
	}
	if _, err := ParseAccessToken(testSecret, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := SignAccessToken(testSecret, testUser(), time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken failed: %v", err)
	}
	if _, err := ParseAccessToken("other-secret", signed); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestNewRefreshTokenEntropy(t *testing.T) {
	token, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken failed: %v", err)
	}
	// 48 random bytes hex-encoded.
	if len(token) != 96 {
		t.Fatalf("expected 96 hex chars, got %d", len(token))
	}

	other, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken failed: %v", err)
	}
	if token == other {
		t.Fatal("two refresh tokens should never collide")
	}
}

func TestHashTokenIsStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("HashToken must be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("different tokens must hash differently")
	}
}
