package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

func strPtr(s string) *string { return &s }

func newTestLead(by primitive.ObjectID) models.Lead {
	agent := by
	return models.Lead{
		ID:            primitive.NewObjectID(),
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Status:        models.LeadStatusNew,
		Source:        "Web",
		AssignedAgent: &agent,
		History:       []models.HistoryEntry{historyEntry(actionCreated, by, nil)},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestApplyLeadUpdateAppendsStatusChange(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	entry, err := applyLeadUpdate(&lead, LeadUpdateRequest{Status: strPtr(models.LeadStatusClosedWon)}, by)
	if err != nil {
		t.Fatalf("applyLeadUpdate failed: %v", err)
	}
	if entry.Action != actionStatusChanged {
		t.Fatalf("expected status_changed, got %s", entry.Action)
	}
	if entry.Meta["from"] != models.LeadStatusNew || entry.Meta["to"] != models.LeadStatusClosedWon {
		t.Fatalf("unexpected transition meta: %v", entry.Meta)
	}
	if lead.Status != models.LeadStatusClosedWon {
		t.Fatalf("status not applied, got %s", lead.Status)
	}
}

func TestApplyLeadUpdatePlainEditIsUpdated(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	entry, err := applyLeadUpdate(&lead, LeadUpdateRequest{
		Name:  strPtr("Janet Doe"),
		Phone: strPtr("555-0101"),
	}, by)
	if err != nil {
		t.Fatalf("applyLeadUpdate failed: %v", err)
	}
	if entry.Action != actionUpdated {
		t.Fatalf("expected updated, got %s", entry.Action)
	}
	if entry.Meta != nil {
		t.Fatalf("plain updates carry no meta, got %v", entry.Meta)
	}
	if lead.Name != "Janet Doe" || lead.Phone != "555-0101" {
		t.Fatalf("fields not applied: %+v", lead)
	}
}

func TestApplyLeadUpdateOneEntryPerCall(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	const updates = 5
	for i := 0; i < updates; i++ {
		entry, err := applyLeadUpdate(&lead, LeadUpdateRequest{Source: strPtr("Referral")}, by)
		if err != nil {
			t.Fatalf("applyLeadUpdate failed: %v", err)
		}
		lead.History = append(lead.History, entry)
	}

	// created + one entry per update, never more.
	if len(lead.History) != updates+1 {
		t.Fatalf("expected %d history entries, got %d", updates+1, len(lead.History))
	}
}

func TestApplyLeadUpdateRejectsInvalidStatus(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	if _, err := applyLeadUpdate(&lead, LeadUpdateRequest{Status: strPtr("Wishful")}, by); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
	if lead.Status != models.LeadStatusNew {
		t.Fatalf("rejected update must not change status, got %s", lead.Status)
	}
}

func TestApplyLeadUpdateRejectsEmptyName(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	if _, err := applyLeadUpdate(&lead, LeadUpdateRequest{Name: strPtr("   ")}, by); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestApplyArchiveFlagAlwaysAppends(t *testing.T) {
	// The history is a log of requests, not a deduplicated state diff:
	// archiving twice still appends twice.
	by := primitive.NewObjectID()
	lead := newTestLead(by)

	applyArchiveFlag(&lead, true, by)
	applyArchiveFlag(&lead, true, by)

	if !lead.Archived {
		t.Fatal("lead must be archived")
	}
	if len(lead.History) != 3 {
		t.Fatalf("expected created + 2 archive entries, got %d", len(lead.History))
	}
	for i, entry := range lead.History[1:] {
		if entry.Action != actionArchived {
			t.Fatalf("entry %d: expected archived, got %s", i+1, entry.Action)
		}
		if entry.By != by {
			t.Fatalf("entry %d not attributed to the actor", i+1)
		}
		if entry.At.IsZero() {
			t.Fatalf("entry %d missing timestamp", i+1)
		}
	}

	applyArchiveFlag(&lead, false, by)
	if lead.Archived {
		t.Fatal("lead must be unarchived")
	}
	if lead.History[3].Action != actionUnarchived {
		t.Fatalf("expected unarchived entry, got %s", lead.History[3].Action)
	}
}

func TestCustomerFromLeadCopiesContactFields(t *testing.T) {
	agent := primitive.NewObjectID()
	lead := newTestLead(agent)
	lead.Phone = "555-0101"
	actor := policy.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	customer := customerFromLead(lead, actor, time.Now())

	if customer.Name != lead.Name || customer.Email != lead.Email || customer.Phone != lead.Phone {
		t.Fatalf("contact fields must carry over verbatim: %+v", customer)
	}
	if customer.Owner == nil || *customer.Owner != agent {
		t.Fatal("owner must be the lead's assigned agent")
	}
	if len(customer.Tags) != 1 || customer.Tags[0] != "converted" {
		t.Fatalf("expected the converted tag, got %v", customer.Tags)
	}
}

func TestCustomerFromLeadFallsBackToActor(t *testing.T) {
	lead := newTestLead(primitive.NewObjectID())
	lead.AssignedAgent = nil
	actor := policy.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	customer := customerFromLead(lead, actor, time.Now())
	if customer.Owner == nil || *customer.Owner != actor.ID {
		t.Fatal("an unassigned lead must be owned by the converting actor")
	}
}

func TestMarkConvertedForcesClosedWon(t *testing.T) {
	by := primitive.NewObjectID()
	lead := newTestLead(by)
	customerID := primitive.NewObjectID()

	entry := markConverted(&lead, customerID, by, time.Now())

	if lead.Status != models.LeadStatusClosedWon {
		t.Fatalf("conversion must leave the lead at Closed Won, got %s", lead.Status)
	}
	if entry.Action != actionConverted {
		t.Fatalf("expected converted entry, got %s", entry.Action)
	}
	if entry.Meta["customerId"] != customerID {
		t.Fatalf("converted entry must point at the customer, got %v", entry.Meta)
	}
	if len(lead.History) != 2 {
		t.Fatalf("expected created + converted, got %d entries", len(lead.History))
	}
}

func TestResolveArchivedFilter(t *testing.T) {
	cases := []struct {
		archived, showArchived string
		want                   bool
	}{
		{"", "", false},
		{"true", "", true},
		{"false", "", false},
		{"", "true", true},
		{"", "false", false},
		// archived wins when both are supplied
		{"false", "true", false},
		{"true", "false", true},
	}
	for _, tc := range cases {
		got := resolveArchivedFilter(tc.archived, tc.showArchived)
		if got != tc.want {
			t.Fatalf("resolveArchivedFilter(%q, %q) = %v, want %v", tc.archived, tc.showArchived, got, tc.want)
		}
	}
}
