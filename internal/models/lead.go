package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	LeadStatusNew        = "New"
	LeadStatusInProgress = "In Progress"
	LeadStatusClosedWon  = "Closed Won"
	LeadStatusClosedLost = "Closed Lost"
)

// HistoryEntry is a single record in a lead's append-only history.
type HistoryEntry struct {
	Action string             `bson:"action" json:"action"`
	At     time.Time          `bson:"at" json:"at"`
	By     primitive.ObjectID `bson:"by" json:"by"`
	Meta   bson.M             `bson:"meta,omitempty" json:"meta,omitempty"`
}

// Lead is a prospective customer moving through the sales funnel. History only
// ever grows: every mutation appends exactly one entry. Leads are never
// physically deleted; Archived is the soft-delete flag and is orthogonal to
// Status.
type Lead struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"name" json:"name"`
	Email         string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Status        string              `bson:"status" json:"status"`
	Source        string              `bson:"source" json:"source"`
	AssignedAgent *primitive.ObjectID `bson:"assignedAgent,omitempty" json:"assignedAgent,omitempty"`
	Archived      bool                `bson:"archived" json:"archived"`
	History       []HistoryEntry      `bson:"history" json:"history"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ValidLeadStatus reports whether status is one of the four funnel states.
func ValidLeadStatus(status string) bool {
	switch status {
	case LeadStatusNew, LeadStatusInProgress, LeadStatusClosedWon, LeadStatusClosedLost:
		return true
	}
	return false
}
