package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func TestTaskDueFilterOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	filter, ok := taskDueFilter("overdue", now)
	if !ok {
		t.Fatal("overdue must be a recognized filter")
	}

	due, _ := filter["dueDate"].(bson.M)
	if due["$lt"] != now {
		t.Fatalf("expected dueDate < now, got %v", filter)
	}
	status, _ := filter["status"].(bson.M)
	if status["$ne"] != models.TaskStatusDone {
		t.Fatal("overdue must exclude finished tasks")
	}
}

func TestTaskDueFilterToday(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	filter, ok := taskDueFilter("today", now)
	if !ok {
		t.Fatal("today must be a recognized filter")
	}

	due, _ := filter["dueDate"].(bson.M)
	start, _ := due["$gte"].(time.Time)
	end, _ := due["$lte"].(time.Time)
	if start.Hour() != 0 || start.Day() != now.Day() {
		t.Fatalf("expected start of day, got %v", start)
	}
	if !end.After(now) || end.Day() != now.Day() {
		t.Fatalf("expected end of day, got %v", end)
	}
}

func TestTaskDueFilterBeforeAfter(t *testing.T) {
	now := time.Now()

	filter, ok := taskDueFilter("before:2025-07-01", now)
	if !ok {
		t.Fatal("before:<date> must be recognized")
	}
	due, _ := filter["dueDate"].(bson.M)
	if _, isTime := due["$lte"].(time.Time); !isTime {
		t.Fatalf("expected $lte time bound, got %v", filter)
	}

	filter, ok = taskDueFilter("after:2025-07-01T08:00:00Z", now)
	if !ok {
		t.Fatal("after:<RFC3339> must be recognized")
	}
	due, _ = filter["dueDate"].(bson.M)
	if _, isTime := due["$gte"].(time.Time); !isTime {
		t.Fatalf("expected $gte time bound, got %v", filter)
	}
}

func TestTaskDueFilterRejectsUnknown(t *testing.T) {
	for _, due := range []string{"tomorrow", "before:soonish", "after:", ""} {
		if _, ok := taskDueFilter(due, time.Now()); ok {
			t.Fatalf("expected %q to be rejected", due)
		}
	}
}
