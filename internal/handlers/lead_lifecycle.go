package handlers

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
	"github.com/pantherdox/mini-crm-backend/internal/policy"
)

// History actions. Every lead mutation appends exactly one entry tagged with
// one of these.
const (
	actionCreated       = "created"
	actionUpdated       = "updated"
	actionStatusChanged = "status_changed"
	actionArchived      = "archived"
	actionUnarchived    = "unarchived"
	actionReassigned    = "reassigned"
	actionConverted     = "converted"
)

func historyEntry(action string, by primitive.ObjectID, meta bson.M) models.HistoryEntry {
	return models.HistoryEntry{Action: action, At: time.Now(), By: by, Meta: meta}
}

// LeadUpdateRequest is the mutable subset of a lead. Assignment changes go
// through the dedicated reassign operation instead.
type LeadUpdateRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Phone  *string `json:"phone"`
	Status *string `json:"status"`
	Source *string `json:"source"`
}

// applyLeadUpdate mutates lead in place and returns the single history entry
// describing the call: status_changed with {from,to} when the status moved,
// plain updated otherwise.
func applyLeadUpdate(lead *models.Lead, req LeadUpdateRequest, by primitive.ObjectID) (models.HistoryEntry, error) {
	prevStatus := lead.Status

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return models.HistoryEntry{}, fmt.Errorf("name cannot be empty")
		}
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		lead.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		lead.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Source != nil {
		lead.Source = strings.TrimSpace(*req.Source)
	}
	if req.Status != nil {
		if !models.ValidLeadStatus(*req.Status) {
			return models.HistoryEntry{}, fmt.Errorf("invalid status %q", *req.Status)
		}
		lead.Status = *req.Status
	}

	if lead.Status != prevStatus {
		return historyEntry(actionStatusChanged, by, bson.M{"from": prevStatus, "to": lead.Status}), nil
	}
	return historyEntry(actionUpdated, by, nil), nil
}

// applyArchiveFlag flips the soft-delete flag and appends the matching
// history entry. The entry is appended even when the flag already holds the
// requested value; history records requests, not diffs.
func applyArchiveFlag(lead *models.Lead, archived bool, by primitive.ObjectID) models.HistoryEntry {
	action := actionArchived
	if !archived {
		action = actionUnarchived
	}
	lead.Archived = archived
	entry := historyEntry(action, by, nil)
	lead.History = append(lead.History, entry)
	return entry
}

// customerFromLead builds the customer record a conversion creates. Contact
// fields carry over verbatim; ownership follows the lead's assignment and
// falls back to the converting actor when the lead is unassigned.
func customerFromLead(lead models.Lead, actor policy.Actor, now time.Time) models.Customer {
	owner := lead.AssignedAgent
	if owner == nil {
		id := actor.ID
		owner = &id
	}
	return models.Customer{
		Name:      lead.Name,
		Company:   "",
		Email:     lead.Email,
		Phone:     lead.Phone,
		Notes:     []models.Note{},
		Tags:      []string{"converted"},
		Owner:     owner,
		Deals:     []models.Deal{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// markConverted forces the lead to Closed Won and appends the converted
// history entry pointing at the new customer.
func markConverted(lead *models.Lead, customerID, by primitive.ObjectID, now time.Time) models.HistoryEntry {
	entry := historyEntry(actionConverted, by, bson.M{"customerId": customerID})
	lead.Status = models.LeadStatusClosedWon
	lead.UpdatedAt = now
	lead.History = append(lead.History, entry)
	return entry
}

// resolveArchivedFilter merges the `archived` param with the legacy
// `showArchived` spelling. Both absent means archived leads stay hidden.
func resolveArchivedFilter(archived, showArchived string) bool {
	if archived != "" {
		return archived == "true"
	}
	if showArchived != "" {
		return showArchived == "true"
	}
	return false
}
