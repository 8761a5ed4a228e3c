package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin agent"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"omitempty,oneof=admin agent"`
	IsActive *bool  `json:"isActive"`
	Password string `json:"password"`
}

// bootstrapAllowed reports whether first-admin creation is still open. Only
// active admins count, so deactivating every admin reopens the door.
func bootstrapAllowed(activeAdmins int64) bool {
	return activeAdmins == 0
}

func countActiveAdmins(ctx context.Context, db *mongo.Database) (int64, error) {
	return db.Collection("users").CountDocuments(ctx, bson.M{
		"role":     models.RoleAdmin,
		"isActive": true,
	})
}

func insertUser(ctx context.Context, db *mongo.Database, name, email, password, role string) (models.User, int, string) {
	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return models.User{}, http.StatusInternalServerError, "db error"
	}
	if count > 0 {
		return models.User{}, http.StatusBadRequest, "email already exists"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, http.StatusInternalServerError, "password hash failed"
	}

	now := time.Now()
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		return models.User{}, http.StatusInternalServerError, "db error"
	}
	user.ID, _ = res.InsertedID.(primitive.ObjectID)
	return user, 0, ""
}

// Register creates a user account. Admin-only; the route guard enforces the
// role, this handler only performs the creation.
func Register(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		role := req.Role
		if role == "" {
			role = models.RoleAgent
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(req.Email))
		user, status, msg := insertUser(ctx, db, strings.TrimSpace(req.Name), email, req.Password, role)
		if msg != "" {
			respondWithError(c, status, "POST /auth/register", msg)
			return
		}

		log.Println("[USERS] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

// Bootstrap creates the very first admin. It is open (no auth) but refuses
// permanently once any active admin exists.
func Bootstrap(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		admins, err := countActiveAdmins(ctx, db)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "POST /auth/bootstrap", "db error")
			return
		}
		if !bootstrapAllowed(admins) {
			respondWithError(c, http.StatusForbidden, "POST /auth/bootstrap", "system already has admin users")
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		user, status, msg := insertUser(ctx, db, strings.TrimSpace(req.Name), email, req.Password, models.RoleAdmin)
		if msg != "" {
			respondWithError(c, status, "POST /auth/bootstrap", msg)
			return
		}

		log.Println("[USERS] [INFO] first admin created:", email)
		c.JSON(http.StatusCreated, gin.H{
			"message": "first admin user created",
			"user": gin.H{
				"id":    user.ID.Hex(),
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

// CheckBootstrap reports whether the one-time bootstrap is still available.
func CheckBootstrap(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		admins, err := countActiveAdmins(ctx, db)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, "GET /auth/bootstrap/check", "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"canBootstrap": bootstrapAllowed(admins)})
	}
}

// Me returns the authenticated actor's account.
func Me(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": actor.ID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, "GET /auth/me", "user not found")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// ListUsers pages through accounts with optional role and name/email search
// filters. Admin-only.
func ListUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/users"
		defer handlePanic(c, route)

		page, limit, skip := parsePagination(c)

		filter := bson.M{}
		if role := strings.TrimSpace(c.Query("role")); role != "" {
			if !models.ValidRole(role) {
				respondWithError(c, http.StatusBadRequest, route, "invalid role filter")
				return
			}
			filter["role"] = role
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": q, "$options": "i"}},
				{"email": bson.M{"$regex": q, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip)

		cursor, err := db.Collection("users").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		total, err := db.Collection("users").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "items": users})
	}
}

// UpdateUser edits account fields, including role, active flag and password
// reset. Admin-only; deactivating your own account is rejected.
func UpdateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /auth/users/:id"

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathObjectID(c)
		if !ok {
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.IsActive != nil && !*req.IsActive && policy.IsSelfTargeting(actor, id) {
			respondWithError(c, http.StatusBadRequest, route, "cannot deactivate your own account")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
			count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email, "_id": bson.M{"$ne": id}})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if count > 0 {
				respondWithError(c, http.StatusBadRequest, route, "email already exists")
				return
			}
			user.Email = email
		}

		if name := strings.TrimSpace(req.Name); name != "" {
			user.Name = name
		}
		if req.Role != "" {
			user.Role = req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if password := strings.TrimSpace(req.Password); password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
				return
			}
			user.PasswordHash = string(hash)
		}
		user.UpdatedAt = time.Now()

		_, err := db.Collection("users").UpdateByID(ctx, id, bson.M{"$set": bson.M{
			"name":         user.Name,
			"email":        user.Email,
			"role":         user.Role,
			"isActive":     user.IsActive,
			"passwordHash": user.PasswordHash,
			"updatedAt":    user.UpdatedAt,
		}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":       user.ID.Hex(),
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"isActive": user.IsActive,
		})
	}
}

// DeleteUser deactivates an account. Accounts are never hard-deleted.
func DeleteUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /auth/users/:id"

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathObjectID(c)
		if !ok {
			return
		}

		if policy.IsSelfTargeting(actor, id) {
			respondWithError(c, http.StatusBadRequest, route, "cannot deactivate your own account")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, id, bson.M{"$set": bson.M{
			"isActive":  false,
			"updatedAt": time.Now(),
		}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		log.Println("[USERS] [INFO] user deactivated:", id.Hex())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
