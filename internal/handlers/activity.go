package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

// ListActivity returns the most recent audit entries, newest first. Admins
// see the global stream; agents only see actions they performed themselves.
// Scoping is by actor, not by who owns the touched entity.
func ListActivity(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /activity"
		defer handlePanic(c, route)

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		_, limit, _ := parsePagination(c)

		filter := bson.M{}
		filter = policy.ScopeToOwner(actor, "actor", filter)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit)

		cursor, err := db.Collection("activities").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Activity, 0)
		if err := cursor.All(ctx, &items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, items)
	}
}
