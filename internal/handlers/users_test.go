package handlers

import "testing"

func TestBootstrapAllowedOnlyBeforeFirstAdmin(t *testing.T) {
	if !bootstrapAllowed(0) {
		t.Fatal("bootstrap must be open while no active admin exists")
	}
	for _, n := range []int64{1, 2, 10} {
		if bootstrapAllowed(n) {
			t.Fatalf("bootstrap must be closed with %d active admins", n)
		}
	}
}
