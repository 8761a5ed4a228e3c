package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

const dashboardCacheTTL = 30 * time.Second

type statusCount struct {
	ID    string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

// leadStatusMap flattens a status aggregation into {status: count}.
func leadStatusMap(rows []statusCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out
}

// DashboardStats aggregates role-scoped funnel counts. Results are cached in
// Redis for a short TTL when a client is configured; a nil client disables
// caching entirely.
func DashboardStats(db *mongo.Database, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /dashboard"
		defer handlePanic(c, route)

		actor, ok := requireActor(c)
		if !ok {
			return
		}

		cacheKey := "dashboard:admin"
		if !actor.IsAdmin() {
			cacheKey = "dashboard:agent:" + actor.ID.Hex()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if rdb != nil {
			if cached, err := rdb.Get(ctx, cacheKey).Bytes(); err == nil {
				c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
				return
			}
		}

		leadFilter := policy.ScopeToOwner(actor, "assignedAgent", bson.M{"archived": false})
		customerFilter := policy.ScopeToOwner(actor, "owner", bson.M{})
		taskFilter := policy.ScopeToOwner(actor, "owner", bson.M{})

		now := time.Now()

		statusRows, err := aggregateCounts(ctx, db.Collection("leads"), mongo.Pipeline{
			{{Key: "$match", Value: leadFilter}},
			{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		totalCustomers, err := db.Collection("customers").CountDocuments(ctx, customerFilter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		openTaskFilter := cloneFilter(taskFilter)
		openTaskFilter["status"] = bson.M{"$in": []string{models.TaskStatusOpen, models.TaskStatusInProgress}}
		openTasks, err := db.Collection("tasks").CountDocuments(ctx, openTaskFilter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		overdueFilter := cloneFilter(taskFilter)
		overdueFilter["dueDate"] = bson.M{"$lt": now}
		overdueFilter["status"] = bson.M{"$ne": models.TaskStatusDone}
		overdueTasks, err := db.Collection("tasks").CountDocuments(ctx, overdueFilter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		perDayMatch := cloneFilter(leadFilter)
		perDayMatch["createdAt"] = bson.M{"$gte": now.Add(-14 * 24 * time.Hour)}
		leadsPerDay, err := aggregateCounts(ctx, db.Collection("leads"), mongo.Pipeline{
			{{Key: "$match", Value: perDayMatch}},
			{{Key: "$group", Value: bson.M{
				"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
				"count": bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.M{"_id": 1}}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		stats := gin.H{
			"leadStatus":     leadStatusMap(statusRows),
			"totalCustomers": totalCustomers,
			"myOpenTasks":    openTasks,
			"overdueTasks":   overdueTasks,
			"leadsPerDay":    leadsPerDay,
		}

		if rdb != nil {
			if body, err := json.Marshal(stats); err == nil {
				if err := rdb.Set(ctx, cacheKey, body, dashboardCacheTTL).Err(); err != nil {
					log.Printf("[%s] cache write failed: %v", route, err)
				}
			}
		}

		c.JSON(http.StatusOK, stats)
	}
}

func aggregateCounts(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]statusCount, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := make([]statusCount, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func cloneFilter(filter bson.M) bson.M {
	out := make(bson.M, len(filter)+2)
	for k, v := range filter {
		out[k] = v
	}
	return out
}
