// Package auth holds the token primitives behind the session model: signed
// short-lived access tokens and opaque persisted refresh tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

// refreshTokenBytes is the entropy of a refresh token before hex encoding.
const refreshTokenBytes = 48

var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims is the identity carried by a verified access token.
type AccessClaims struct {
	UserID primitive.ObjectID
	Role   string
	Name   string
}

// SignAccessToken mints a stateless HS256 token for the user. The token
// carries the subject id, role and display name; nothing is persisted.
func SignAccessToken(secret string, user models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.Hex(),
		"role": user.Role,
		"name": user.Name,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken verifies signature and expiry and extracts the claims.
// Callers must still re-resolve the user to confirm the account is active.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return AccessClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	return AccessClaims{UserID: userID, Role: role, Name: name}, nil
}

// NewRefreshToken returns a high-entropy opaque token. Only HashToken of the
// value ever reaches the database.
func NewRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken is the at-rest form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
