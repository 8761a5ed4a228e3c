// Package activity implements the append-only audit stream. Recording is
// best-effort: a failed append is logged and never aborts the mutation that
// triggered it.
package activity

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/queue"
)

// Event describes one domain mutation to be mirrored into the audit log.
type Event struct {
	Type       string
	Actor      primitive.ObjectID
	EntityType string
	EntityID   primitive.ObjectID
	Message    string
	Meta       bson.M
}

// Recorder appends Events to the activities collection and optionally fans
// them out to the message broker.
type Recorder struct {
	insert  func(ctx context.Context, doc models.Activity) error
	publish func(ctx context.Context, doc models.Activity) error
}

func NewRecorder(db *mongo.Database, pub *queue.Publisher) *Recorder {
	r := &Recorder{
		insert: func(ctx context.Context, doc models.Activity) error {
			_, err := db.Collection("activities").InsertOne(ctx, doc)
			return err
		},
	}
	if pub != nil {
		r.publish = func(ctx context.Context, doc models.Activity) error {
			return pub.Publish(ctx, doc)
		}
	}
	return r
}

// Record appends one audit entry in the background. The caller's mutation has
// already been applied; nothing here can fail it.
func (r *Recorder) Record(e Event) {
	go r.record(e)
}

func (r *Recorder) record(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := models.Activity{
		Type:       e.Type,
		Actor:      e.Actor,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Message:    e.Message,
		Meta:       e.Meta,
		CreatedAt:  time.Now(),
	}

	if err := r.insert(ctx, doc); err != nil {
		log.Println("[ACTIVITY] [ERROR] record failed:", err)
	}

	if r.publish != nil {
		if err := r.publish(ctx, doc); err != nil {
			log.Println("[ACTIVITY] [WARN] event publish failed:", err)
		}
	}
}
