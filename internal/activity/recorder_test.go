package activity

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func TestRecordPersistsOneEntry(t *testing.T) {
	var inserted []models.Activity
	r := &Recorder{
		insert: func(_ context.Context, doc models.Activity) error {
			inserted = append(inserted, doc)
			return nil
		},
	}

	actor := primitive.NewObjectID()
	entity := primitive.NewObjectID()
	r.record(Event{
		Type:       "lead_created",
		Actor:      actor,
		EntityType: "Lead",
		EntityID:   entity,
		Message:    "Lead created: Jane Doe",
	})

	if len(inserted) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(inserted))
	}
	doc := inserted[0]
	if doc.Type != "lead_created" || doc.Actor != actor || doc.EntityID != entity {
		t.Fatalf("unexpected activity document: %+v", doc)
	}
	if doc.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}
}

func TestRecordSwallowsInsertFailures(t *testing.T) {
	r := &Recorder{
		insert: func(context.Context, models.Activity) error {
			return errors.New("collection unavailable")
		},
	}

	// Must not panic or propagate; the primary mutation already succeeded.
	r.record(Event{Type: "lead_updated", Actor: primitive.NewObjectID(), EntityType: "Lead", EntityID: primitive.NewObjectID(), Message: "x"})
}

func TestRecordStillPublishesWhenInsertFails(t *testing.T) {
	published := 0
	r := &Recorder{
		insert: func(context.Context, models.Activity) error {
			return errors.New("down")
		},
		publish: func(context.Context, models.Activity) error {
			published++
			return nil
		},
	}

	r.record(Event{Type: "lead_archived", Actor: primitive.NewObjectID(), EntityType: "Lead", EntityID: primitive.NewObjectID(), Message: "x", Meta: bson.M{"k": "v"}})
	if published != 1 {
		t.Fatalf("expected one published event, got %d", published)
	}
}
