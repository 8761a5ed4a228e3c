package policy

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

func admin() Actor {
	return Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func agent() Actor {
	return Actor{ID: primitive.NewObjectID(), Role: models.RoleAgent}
}

func TestAdminAccessesAnything(t *testing.T) {
	other := primitive.NewObjectID()
	if !CanAccess(admin(), &other) {
		t.Fatal("admin must access resources owned by others")
	}
	if !CanAccess(admin(), nil) {
		t.Fatal("admin must access unowned resources")
	}
}

func TestAgentAccessesOnlyOwnResources(t *testing.T) {
	a := agent()
	if !CanAccess(a, &a.ID) {
		t.Fatal("agent must access own resources")
	}

	other := primitive.NewObjectID()
	if CanAccess(a, &other) {
		t.Fatal("agent must not access resources owned by a different agent")
	}
}

func TestAgentNeverSeesUnownedResources(t *testing.T) {
	if CanAccess(agent(), nil) {
		t.Fatal("an unassigned resource must be invisible to agents")
	}
}

func TestScopeToOwnerNarrowsForAgents(t *testing.T) {
	a := agent()
	filter := ScopeToOwner(a, "assignedAgent", bson.M{"archived": false})
	if filter["assignedAgent"] != a.ID {
		t.Fatalf("expected ownership filter for agent, got %v", filter)
	}
	if filter["archived"] != false {
		t.Fatal("existing filter fields must be preserved")
	}
}

func TestScopeToOwnerLeavesAdminUnfiltered(t *testing.T) {
	filter := ScopeToOwner(admin(), "owner", nil)
	if _, ok := filter["owner"]; ok {
		t.Fatal("admin listings must not be ownership-scoped")
	}
}

func TestScopeToOwnerOverridesCallerSuppliedOwner(t *testing.T) {
	// An agent asking for someone else's resources still only gets their own.
	a := agent()
	other := primitive.NewObjectID()
	filter := ScopeToOwner(a, "owner", bson.M{"owner": other})
	if filter["owner"] != a.ID {
		t.Fatalf("agent must not widen the scope filter, got %v", filter["owner"])
	}
}

func TestOnlyAdminReassignsAndAdministers(t *testing.T) {
	if CanReassign(agent()) || CanAdministerUsers(agent()) {
		t.Fatal("agents must not reassign leads or administer users")
	}
	if !CanReassign(admin()) || !CanAdministerUsers(admin()) {
		t.Fatal("admins must reassign leads and administer users")
	}
}

func TestIsSelfTargeting(t *testing.T) {
	a := admin()
	if !IsSelfTargeting(a, a.ID) {
		t.Fatal("expected self-target detection")
	}
	if IsSelfTargeting(a, primitive.NewObjectID()) {
		t.Fatal("unexpected self-target for a different user")
	}
}
