package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/pantherdox/mini-crm-backend/internal/auth"
	"github.com/pantherdox/mini-crm-backend/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login checks credentials and issues an access/refresh token pair. The
// refresh token record is the only thing persisted; access tokens are
// stateless.
func Login(db *mongo.Database, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] login: unknown email")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if !user.IsActive {
			log.Println("[AUTH] [ERROR] login: account deactivated:", email)
			c.JSON(http.StatusForbidden, gin.H{"error": "account has been deactivated"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login: invalid password for", email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		accessToken, err := auth.SignAccessToken(jwtSecret, user, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login: token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		plainRefresh, err := auth.NewRefreshToken()
		if err != nil {
			log.Println("[AUTH] [ERROR] login: refresh token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		now := time.Now()
		record := models.RefreshToken{
			UserID:    user.ID,
			TokenHash: auth.HashToken(plainRefresh),
			ExpiresAt: now.Add(refreshTTL),
			Revoked:   false,
			CreatedAt: now,
		}
		if _, err := db.Collection("refresh_tokens").InsertOne(ctx, record); err != nil {
			log.Println("[AUTH] [ERROR] login: refresh token insert failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", email)
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  accessToken,
			"refreshToken": plainRefresh,
			"user": gin.H{
				"id":   user.ID.Hex(),
				"name": user.Name,
				"role": user.Role,
			},
		})
	}
}

// refreshRejection returns the 401 message for an unusable refresh token,
// empty when the token still grants access. A token is usable while it is
// unrevoked, unexpired and its owning account is still active.
func refreshRejection(token models.RefreshToken, user models.User, now time.Time) string {
	switch {
	case token.Revoked:
		return "invalid refresh token"
	case now.After(token.ExpiresAt):
		return "expired refresh token"
	case !user.IsActive:
		return "invalid refresh token"
	}
	return ""
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is never rotated and its expiry is never extended.
func Refresh(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		plain := strings.TrimSpace(req.RefreshToken)
		if plain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var token models.RefreshToken
		err := db.Collection("refresh_tokens").FindOne(ctx, bson.M{
			"tokenHash": auth.HashToken(plain),
		}).Decode(&token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": token.UserID}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		if msg := refreshRejection(token, user, time.Now()); msg != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		accessToken, err := auth.SignAccessToken(jwtSecret, user, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh: token generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

// Logout revokes the refresh token. Revoking an unknown token is a no-op
// success so logout never fails client-side.
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LogoutRequest
		_ = c.ShouldBindJSON(&req)

		plain := strings.TrimSpace(req.RefreshToken)
		if plain != "" {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()

			_, err := db.Collection("refresh_tokens").UpdateOne(ctx,
				bson.M{"tokenHash": auth.HashToken(plain)},
				bson.M{"$set": bson.M{"revoked": true}},
			)
			if err != nil {
				log.Println("[AUTH] [ERROR] logout: revoke failed:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
