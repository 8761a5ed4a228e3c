package handlers

import (
	"context"
	"fmt"
	"log"
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

type CreateLeadRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	Source        string `json:"source"`
	AssignedAgent string `json:"assignedAgent"`
}

type ReassignRequest struct {
	AssignedAgent string `json:"assignedAgent" binding:"required"`
}

func findLead(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (models.Lead, error) {
	var lead models.Lead
	err := db.Collection("leads").FindOne(ctx, bson.M{"_id": id}).Decode(&lead)
	return lead, err
}

// loadAuthorizedLead fetches the lead and applies the ownership rule,
// aborting the request on miss or denial.
func loadAuthorizedLead(c *gin.Context, db *mongo.Database, route string, actor policy.Actor) (models.Lead, bool) {
	id, ok := pathObjectID(c)
	if !ok {
		return models.Lead{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	lead, err := findLead(ctx, db, id)
	if err != nil {
		respondWithError(c, http.StatusNotFound, route, "lead not found")
		return models.Lead{}, false
	}

	if !policy.CanAccess(actor, lead.AssignedAgent) {
		respondWithError(c, http.StatusForbidden, route, "forbidden")
		return models.Lead{}, false
	}

	return lead, true
}

// ListLeads pages through leads. Agents are always narrowed to their own
// assignments at the query layer so totals stay correct; archived leads are
// hidden unless asked for via archived= or the legacy showArchived=.
func ListLeads(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /leads"
		defer handlePanic(c, route)

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		page, limit, skip := parsePagination(c)

		filter := bson.M{
			"archived": resolveArchivedFilter(c.Query("archived"), c.Query("showArchived")),
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidLeadStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": q, "$options": "i"}},
				{"email": bson.M{"$regex": q, "$options": "i"}},
				{"phone": bson.M{"$regex": q, "$options": "i"}},
				{"source": bson.M{"$regex": q, "$options": "i"}},
			}
		}
		if agentParam := strings.TrimSpace(c.Query("assignedAgent")); agentParam != "" && actor.IsAdmin() {
			agentID, err := primitive.ObjectIDFromHex(agentParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid assignedAgent filter")
				return
			}
			filter["assignedAgent"] = agentID
		}
		filter = policy.ScopeToOwner(actor, "assignedAgent", filter)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip)

		cursor, err := db.Collection("leads").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		leads := make([]models.Lead, 0)
		if err := cursor.All(ctx, &leads); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		total, err := db.Collection("leads").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "items": leads})
	}
}

func GetLead(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		lead, ok := loadAuthorizedLead(c, db, "GET /leads/:id", actor)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

// CreateLead opens a lead with a single created history entry. Agents always
// own what they create; admins may assign on intake.
func CreateLead(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /leads"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req CreateLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		status := req.Status
		if status == "" {
			status = models.LeadStatusNew
		}
		if !models.ValidLeadStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		source := strings.TrimSpace(req.Source)
		if source == "" {
			source = "Unknown"
		}

		var assigned *primitive.ObjectID
		if !actor.IsAdmin() {
			id := actor.ID
			assigned = &id
		} else if agentParam := strings.TrimSpace(req.AssignedAgent); agentParam != "" {
			agentID, err := primitive.ObjectIDFromHex(agentParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid assignedAgent")
				return
			}
			assigned = &agentID
		}

		now := time.Now()
		lead := models.Lead{
			Name:          strings.TrimSpace(req.Name),
			Email:         strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:         strings.TrimSpace(req.Phone),
			Status:        status,
			Source:        source,
			AssignedAgent: assigned,
			Archived:      false,
			History:       []models.HistoryEntry{historyEntry(actionCreated, actor.ID, nil)},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("leads").InsertOne(ctx, lead)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		lead.ID, _ = res.InsertedID.(primitive.ObjectID)

		rec.Record(activity.Event{
			Type:       "lead_created",
			Actor:      actor.ID,
			EntityType: "Lead",
			EntityID:   lead.ID,
			Message:    fmt.Sprintf("Lead created: %s", lead.Name),
		})

		c.JSON(http.StatusCreated, lead)
	}
}

// UpdateLead applies a partial edit and appends exactly one history entry no
// matter how many fields changed.
func UpdateLead(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /leads/:id"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req LeadUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		lead, ok := loadAuthorizedLead(c, db, route, actor)
		if !ok {
			return
		}

		prevStatus := lead.Status
		entry, err := applyLeadUpdate(&lead, req, actor.ID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		lead.UpdatedAt = time.Now()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err = db.Collection("leads").UpdateByID(ctx, lead.ID, bson.M{
			"$set": bson.M{
				"name":      lead.Name,
				"email":     lead.Email,
				"phone":     lead.Phone,
				"status":    lead.Status,
				"source":    lead.Source,
				"updatedAt": lead.UpdatedAt,
			},
			"$push": bson.M{"history": entry},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		lead.History = append(lead.History, entry)

		if entry.Action == actionStatusChanged {
			rec.Record(activity.Event{
				Type:       "lead_status_changed",
				Actor:      actor.ID,
				EntityType: "Lead",
				EntityID:   lead.ID,
				Message:    fmt.Sprintf("Lead status: %s -> %s", prevStatus, lead.Status),
				Meta:       bson.M{"from": prevStatus, "to": lead.Status},
			})
		} else {
			rec.Record(activity.Event{
				Type:       "lead_updated",
				Actor:      actor.ID,
				EntityType: "Lead",
				EntityID:   lead.ID,
				Message:    fmt.Sprintf("Lead updated: %s", lead.Name),
			})
		}

		c.JSON(http.StatusOK, lead)
	}
}

// SetLeadArchived handles archive, unarchive and DELETE (a synonym for
// archive). Re-archiving is fine: the flag is idempotent but the history
// still records every request.
func SetLeadArchived(db *mongo.Database, rec *activity.Recorder, archived bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := requestRoute(c)
		eventType := "lead_archived"
		message := "Lead archived: %s"
		if !archived {
			eventType = "lead_unarchived"
			message = "Lead unarchived: %s"
		}

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		lead, ok := loadAuthorizedLead(c, db, route, actor)
		if !ok {
			return
		}

		entry := applyArchiveFlag(&lead, archived, actor.ID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("leads").UpdateByID(ctx, lead.ID, bson.M{
			"$set":  bson.M{"archived": lead.Archived, "updatedAt": time.Now()},
			"$push": bson.M{"history": entry},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		rec.Record(activity.Event{
			Type:       eventType,
			Actor:      actor.ID,
			EntityType: "Lead",
			EntityID:   lead.ID,
			Message:    fmt.Sprintf(message, lead.Name),
		})

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// ReassignLead moves a lead to another agent. Admin-only by policy.
func ReassignLead(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /leads/:id/reassign"

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		if !policy.CanReassign(actor) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		var req ReassignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		newAgent, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.AssignedAgent))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid assignedAgent")
			return
		}

		lead, ok := loadAuthorizedLead(c, db, route, actor)
		if !ok {
			return
		}

		meta := bson.M{"to": newAgent}
		if lead.AssignedAgent != nil {
			meta["from"] = *lead.AssignedAgent
		} else {
			meta["from"] = nil
		}
		entry := historyEntry(actionReassigned, actor.ID, meta)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err = db.Collection("leads").UpdateByID(ctx, lead.ID, bson.M{
			"$set":  bson.M{"assignedAgent": newAgent, "updatedAt": time.Now()},
			"$push": bson.M{"history": entry},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		lead.AssignedAgent = &newAgent
		lead.History = append(lead.History, entry)

		rec.Record(activity.Event{
			Type:       "lead_reassigned",
			Actor:      actor.ID,
			EntityType: "Lead",
			EntityID:   lead.ID,
			Message:    fmt.Sprintf("Lead reassigned: %s", lead.Name),
			Meta:       meta,
		})

		c.JSON(http.StatusOK, lead)
	}
}

// ConvertLead turns a lead into a customer. The customer is written first;
// if the lead update then fails, the error surfaces and the orphan customer
// id is logged so reconciliation can pick it up.
func ConvertLead(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /leads/:id/convert"

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		lead, ok := loadAuthorizedLead(c, db, route, actor)
		if !ok {
			return
		}

		now := time.Now()
		customer := customerFromLead(lead, actor, now)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("customers").InsertOne(ctx, customer)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		customer.ID, _ = res.InsertedID.(primitive.ObjectID)

		entry := markConverted(&lead, customer.ID, actor.ID, now)
		_, err = db.Collection("leads").UpdateByID(ctx, lead.ID, bson.M{
			"$set":  bson.M{"status": lead.Status, "updatedAt": now},
			"$push": bson.M{"history": entry},
		})
		if err != nil {
			// The customer write committed but the lead did not convert.
			// Surface the failure and leave a marker for reconciliation.
			log.Printf("[%s] [ERROR] lead %s not marked converted, orphan customer %s: %v",
				route, lead.ID.Hex(), customer.ID.Hex(), err)
			respondWithError(c, http.StatusInternalServerError, route, "conversion incomplete")
			return
		}

		rec.Record(activity.Event{
			Type:       "lead_converted",
			Actor:      actor.ID,
			EntityType: "Lead",
			EntityID:   lead.ID,
			Message:    fmt.Sprintf("Converted to customer: %s", lead.Name),
			Meta:       bson.M{"customerId": customer.ID},
		})
		rec.Record(activity.Event{
			Type:       "customer_created",
			Actor:      actor.ID,
			EntityType: "Customer",
			EntityID:   customer.ID,
			Message:    fmt.Sprintf("Customer created: %s", customer.Name),
			Meta:       bson.M{"convertedFrom": lead.ID},
		})

		c.JSON(http.StatusOK, gin.H{"lead": lead, "customer": customer})
	}
}
