package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func TestLeadStatusMapFlattensAggregation(t *testing.T) {
	rows := []statusCount{
		{ID: models.LeadStatusNew, Count: 4},
		{ID: models.LeadStatusClosedWon, Count: 2},
	}

	got := leadStatusMap(rows)
	if got[models.LeadStatusNew] != 4 || got[models.LeadStatusClosedWon] != 2 {
		t.Fatalf("unexpected map: %v", got)
	}
	if _, ok := got[models.LeadStatusClosedLost]; ok {
		t.Fatal("absent statuses must stay absent, not zero-filled")
	}
}

func TestCloneFilterIsIndependent(t *testing.T) {
	base := bson.M{"owner": "a"}
	clone := cloneFilter(base)
	clone["status"] = "Open"

	if _, ok := base["status"]; ok {
		t.Fatal("mutating the clone must not touch the base filter")
	}
}
