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

type CreateTaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	Status      string    `json:"status" binding:"omitempty,oneof=Open 'In Progress' Done"`
	Priority    string    `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	RelatedType string    `json:"relatedType" binding:"required,oneof=Lead Customer"`
	RelatedID   string    `json:"relatedId" binding:"required"`
	Owner       string    `json:"owner"`
}

type UpdateTaskRequest struct {
	Title    *string    `json:"title"`
	DueDate  *time.Time `json:"dueDate"`
	Status   *string    `json:"status" binding:"omitempty,oneof=Open 'In Progress' Done"`
	Priority *string    `json:"priority" binding:"omitempty,oneof=Low Medium High"`
}

// taskDueFilter translates the due query param into a dueDate condition.
// Supported: overdue, today, before:<RFC3339 or date>, after:<...>.
func taskDueFilter(due string, now time.Time) (bson.M, bool) {
	switch {
	case due == "overdue":
		return bson.M{
			"dueDate": bson.M{"$lt": now},
			"status":  bson.M{"$ne": models.TaskStatusDone},
		}, true
	case due == "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := start.Add(24*time.Hour - time.Nanosecond)
		return bson.M{"dueDate": bson.M{"$gte": start, "$lte": end}}, true
	case strings.HasPrefix(due, "before:"):
		d, err := parseDueDate(strings.TrimPrefix(due, "before:"))
		if err != nil {
			return nil, false
		}
		return bson.M{"dueDate": bson.M{"$lte": d}}, true
	case strings.HasPrefix(due, "after:"):
		d, err := parseDueDate(strings.TrimPrefix(due, "after:"))
		if err != nil {
			return nil, false
		}
		return bson.M{"dueDate": bson.M{"$gte": d}}, true
	}
	return nil, false
}

func parseDueDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, nil
	}
	return time.Parse("2006-01-02", s)
}

// ListTasks pages through tasks sorted by due date, ownership-scoped for
// agents.
func ListTasks(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tasks"
		defer handlePanic(c, route)

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		page, limit, skip := parsePagination(c)

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidTaskStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}
		if due := strings.TrimSpace(c.Query("due")); due != "" {
			dueFilter, ok := taskDueFilter(due, time.Now())
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "invalid due filter")
				return
			}
			for k, v := range dueFilter {
				filter[k] = v
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
			SetSort(bson.D{{Key: "dueDate", Value: 1}}).
			SetLimit(limit).
			SetSkip(skip)

		cursor, err := db.Collection("tasks").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		tasks := make([]models.Task, 0)
		if err := cursor.All(ctx, &tasks); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		total, err := db.Collection("tasks").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit, "total": total, "items": tasks})
	}
}

// CreateTask opens a follow-up item. The relatedId is stored as-is: it is a
// weak reference and never validated against the target collection.
func CreateTask(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tasks"

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req CreateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		relatedID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.RelatedID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid relatedId")
			return
		}

		owner := actor.ID
		if actor.IsAdmin() && strings.TrimSpace(req.Owner) != "" {
			ownerID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.Owner))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid owner")
				return
			}
			owner = ownerID
		}

		status := req.Status
		if status == "" {
			status = models.TaskStatusOpen
		}
		priority := req.Priority
		if priority == "" {
			priority = models.TaskPriorityMedium
		}

		now := time.Now()
		task := models.Task{
			Title:       strings.TrimSpace(req.Title),
			DueDate:     req.DueDate,
			Status:      status,
			Priority:    priority,
			RelatedType: req.RelatedType,
			RelatedID:   relatedID,
			Owner:       owner,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("tasks").InsertOne(ctx, task)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		task.ID, _ = res.InsertedID.(primitive.ObjectID)

		rec.Record(activity.Event{
			Type:       "task_created",
			Actor:      actor.ID,
			EntityType: "Task",
			EntityID:   task.ID,
			Message:    fmt.Sprintf("Task created: %s", task.Title),
		})

		c.JSON(http.StatusCreated, task)
	}
}

// UpdateTask applies a partial edit to an owned task.
func UpdateTask(db *mongo.Database, rec *activity.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /tasks/:id"

		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathObjectID(c)
		if !ok {
			return
		}

		var req UpdateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var task models.Task
		if err := db.Collection("tasks").FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
			respondWithError(c, http.StatusNotFound, route, "task not found")
			return
		}
		if !policy.CanAccess(actor, &task.Owner) {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			task.Title = strings.TrimSpace(*req.Title)
		}
		if req.DueDate != nil {
			task.DueDate = *req.DueDate
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		task.UpdatedAt = time.Now()

		_, err := db.Collection("tasks").UpdateByID(ctx, id, bson.M{"$set": bson.M{
			"title":     task.Title,
			"dueDate":   task.DueDate,
			"status":    task.Status,
			"priority":  task.Priority,
			"updatedAt": task.UpdatedAt,
		}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		rec.Record(activity.Event{
			Type:       "task_updated",
			Actor:      actor.ID,
			EntityType: "Task",
			EntityID:   task.ID,
			Message:    fmt.Sprintf("Task updated: %s", task.Title),
		})

		c.JSON(http.StatusOK, task)
	}
}
