package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is one entry in the append-only audit stream. Activities are
// written once per domain mutation and never updated or deleted.
type Activity struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type       string             `bson:"type" json:"type"`
	Actor      primitive.ObjectID `bson:"actor" json:"actor"`
	EntityType string             `bson:"entityType" json:"entityType"`
	EntityID   primitive.ObjectID `bson:"entityId" json:"entityId"`
	Message    string             `bson:"message" json:"message"`
	Meta       bson.M             `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
