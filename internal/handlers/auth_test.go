package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func TestRefreshRejection(t *testing.T) {
	now := time.Now()
	user := models.User{ID: primitive.NewObjectID(), IsActive: true}
	good := models.RefreshToken{UserID: user.ID, ExpiresAt: now.Add(time.Hour)}

	if msg := refreshRejection(good, user, now); msg != "" {
		t.Fatalf("valid token must be accepted, got %q", msg)
	}

	revoked := good
	revoked.Revoked = true
	if refreshRejection(revoked, user, now) == "" {
		t.Fatal("revoked token must be rejected")
	}

	expired := good
	expired.ExpiresAt = now.Add(-time.Minute)
	if got := refreshRejection(expired, user, now); got != "expired refresh token" {
		t.Fatalf("expired token must be rejected as expired, got %q", got)
	}

	inactive := user
	inactive.IsActive = false
	if refreshRejection(good, inactive, now) == "" {
		t.Fatal("token owned by a deactivated account must be rejected")
	}
}
