package card

import (
	"testing"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/models"
)

func TestSetTaskStatus(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	c := mustCreateCard(t, gdb, id, "s1")
	key := c.Tasks[0].TaskKey

	done, err := SetTaskStatus(gdb, id, c.ID, key, models.TaskCompleted)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if done.Status != models.TaskCompleted || done.CompletedAt == nil {
		t.Errorf("task = %q / %v, want completed with timestamp", done.Status, done.CompletedAt)
	}

	// Toggling back clears the timestamp.
	pending, err := SetTaskStatus(gdb, id, c.ID, key, models.TaskPending)
	if err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	if pending.Status != models.TaskPending || pending.CompletedAt != nil {
		t.Errorf("task = %q / %v, want pending with no timestamp", pending.Status, pending.CompletedAt)
	}
}

func TestSetTaskStatus_Validation(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	c := mustCreateCard(t, gdb, id, "s1")
	key := c.Tasks[0].TaskKey

	if _, err := SetTaskStatus(gdb, id, c.ID, key, "done"); !apierr.Is(err, apierr.CodeInvalidPayload) {
		t.Errorf("bad status err = %v, want invalid_payload", err)
	}
	if _, err := SetTaskStatus(gdb, id, c.ID, "no_such_task", models.TaskCompleted); !apierr.Is(err, apierr.CodeNotFound) {
		t.Errorf("unknown key err = %v, want not_found", err)
	}
}

func TestSetTaskStatus_FrozenOnCompletedCard(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	c := mustCreateCard(t, gdb, id, "s1")

	now := time.Now().UTC()
	if err := gdb.Model(&models.Card{}).Where("id = ?", c.ID).
		Update("completed_at", &now).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	if _, err := SetTaskStatus(gdb, id, c.ID, c.Tasks[0].TaskKey, models.TaskCompleted); !apierr.Is(err, apierr.CodeCardAlreadyCompleted) {
		t.Errorf("frozen task err = %v, want card_already_completed", err)
	}
}
