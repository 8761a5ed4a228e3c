package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pantherdox/mini-crm-backend/internal/activity"
	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

type CreateCustomerRequest struct {
	Name    string        `json:"name" binding:"required"`
	Company string        `json:"company"`
	Email   string        `json:"email" binding:"omitempty,email"`
	Phone   string        `json:"phone"`
	Tags    []string      `json:"tags"`
	Owner   string        `json:"owner"`
	Deals   []models.Deal `json:"deals"`
}

type UpdateCustomerRequest struct {
	Name    *string        `json:"name"`
	Company *string        `json:"company"`
	Email   *string        `json:"email" binding:"omitempty,email"`
	Phone   *string        `json:"phone"`
	Tags    *[]string      `json:"tags"`
	Deals   *[]models.Deal `json:"deals"`
}

type AddNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

func loadAuthorizedCustomer(c *gin.Context, db *mongo.Database, route string, actor policy.Actor) (models.Customer, bool) {
	id, ok := pathObjectID(c)
	if !ok {
		return models.Customer{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var customer models.Customer
	if err := db.Collection("customers").FindOne(ctx, bson.M{"_id": id}).Decode(&customer); err != nil {
		respondWithError(c, http.StatusNotFound, route, "customer not found")
		return models.Customer{}, false
	}

	if !policy.CanAccess(actor, customer.Owner) {
		respondWithError(c, http.StatusForbidden, route, "forbidden")
		return models.Customer{}, false
	}

	return customer, true
}

// ListCustomers pages through customers, ownership-scoped for agents.
func ListCustomers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customers"
		defer handlePanic(c, route)

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		page, limit, skip := parsePagination(c)

		filter := bson.M{}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": q, "$options": "i"}},
				{"email": bson.M{"$regex": q, "$options": "i"}},
				{"phone": bson.M{"$regex": q, "$options": "i"}},
				{"company": bson.M{"$regex": q, "$options": "i"}},
			}
		}
		if ownerParam := strings.TrimSpace(c.Query("owner")); ownerParam != "" && actor.IsAdmin() {
			ownerID, err := primitive.ObjectIDFromHex(ownerParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid owner filter")
				return
			}
			filter["owner"] = ownerID
		}
		filter = policy.ScopeToOwner(actor, "owner", filter)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip)

		cursor, err := db.Collection("customers").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		customers := make([]models.Customer, 0)
		if err := cursor.All(ctx, &customers); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		total, err := db.Collection("customers").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "items": customers})
	}
}

func GetCustomer(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		customer, ok := loadAuthorizedCustomer(c, db, "GET /customers/:id", actor)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// CreateCustomer opens a customer directly (as opposed to lead conversion).
// Agents own what they create.
func CreateCustomer(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /customers"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req CreateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		var owner *primitive.ObjectID
		if !actor.IsAdmin() {
			id := actor.ID
			owner = &id
		} else if ownerParam := strings.TrimSpace(req.Owner); ownerParam != "" {
			ownerID, err := primitive.ObjectIDFromHex(ownerParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid owner")
				return
			}
			owner = &ownerID
		}

		tags := req.Tags
		if tags == nil {
			tags = []string{}
		}
		deals := req.Deals
		if deals == nil {
			deals = []models.Deal{}
		}

		now := time.Now()
		customer := models.Customer{
			Name:      strings.TrimSpace(req.Name),
			Company:   strings.TrimSpace(req.Company),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     strings.TrimSpace(req.Phone),
			Notes:     []models.Note{},
			Tags:      tags,
			Owner:     owner,
			Deals:     deals,
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("customers").InsertOne(ctx, customer)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		customer.ID, _ = res.InsertedID.(primitive.ObjectID)

		rec.Record(activity.Event{
			Type:       "customer_created",
			Actor:      actor.ID,
			EntityType: "Customer",
			EntityID:   customer.ID,
			Message:    fmt.Sprintf("Customer created: %s", customer.Name),
		})

		c.JSON(http.StatusCreated, customer)
	}
}

// UpdateCustomer applies a partial edit.
func UpdateCustomer(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /customers/:id"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req UpdateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		customer, ok := loadAuthorizedCustomer(c, db, route, actor)
		if !ok {
			return
		}

		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			customer.Name = strings.TrimSpace(*req.Name)
		}
		if req.Company != nil {
			customer.Company = strings.TrimSpace(*req.Company)
		}
		if req.Email != nil {
			customer.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Phone != nil {
			customer.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Tags != nil {
			customer.Tags = *req.Tags
		}
		if req.Deals != nil {
			customer.Deals = *req.Deals
		}
		customer.UpdatedAt = time.Now()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("customers").UpdateByID(ctx, customer.ID, bson.M{"$set": bson.M{
			"name":      customer.Name,
			"company":   customer.Company,
			"email":     customer.Email,
			"phone":     customer.Phone,
			"tags":      customer.Tags,
			"deals":     customer.Deals,
			"updatedAt": customer.UpdatedAt,
		}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		rec.Record(activity.Event{
			Type:       "customer_updated",
			Actor:      actor.ID,
			EntityType: "Customer",
			EntityID:   customer.ID,
			Message:    fmt.Sprintf("Customer updated: %s", customer.Name),
		})

		c.JSON(http.StatusOK, customer)
	}
}

// AddCustomerNote prepends an immutable note and returns it with the five
// most recent notes.
func AddCustomerNote(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /customers/:id/notes"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req AddNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		customer, ok := loadAuthorizedCustomer(c, db, route, actor)
		if !ok {
			return
		}

		note := models.Note{
			Text:      strings.TrimSpace(req.Text),
			Author:    actor.ID,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("customers").UpdateByID(ctx, customer.ID, bson.M{
			"$push": bson.M{"notes": bson.M{"$each": []models.Note{note}, "$position": 0}},
			"$set":  bson.M{"updatedAt": note.CreatedAt},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		notes := prependNote(customer.Notes, note)

		rec.Record(activity.Event{
			Type:       "customer_note_added",
			Actor:      actor.ID,
			EntityType: "Customer",
			EntityID:   customer.ID,
			Message:    fmt.Sprintf("Note added to %s", customer.Name),
		})

		c.JSON(http.StatusCreated, gin.H{"note": note, "latest5": latestNotes(notes, 5)})
	}
}

func prependNote(notes []models.Note, note models.Note) []models.Note {
	out := make([]models.Note, 0, len(notes)+1)
	out = append(out, note)
	return append(out, notes...)
}

func latestNotes(notes []models.Note, n int) []models.Note {
	if len(notes) < n {
		return notes
	}
	return notes[:n]
}
