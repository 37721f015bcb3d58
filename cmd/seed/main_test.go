package main

import (
	"testing"

	"github.com/google/uuid"
)

// The id columns are typed uuid in Postgres, so every fixed seed id must be a
// parseable UUID or the first insert fails.
func TestSeedIDsAreValidUUIDs(t *testing.T) {
	ids := map[string]string{
		"devUserID":       devUserID,
		"memberUserID":    memberUserID,
		"devPodID":        devPodID,
		"devMembershipID": devMembershipID,
		"podNoteID":       podNoteID,
		"personalNoteID":  personalNoteID,
	}
	seen := make(map[string]string, len(ids))
	for name, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("%s = %q is not a valid UUID: %v", name, id, err)
		}
		if prev, ok := seen[id]; ok {
			t.Errorf("%s reuses the id of %s", name, prev)
		}
		seen[id] = name
	}
}
