package card

import (
	"testing"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/db"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/ordering"
	"github.com/fitops/coachdesk/internal/stage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func seedTenant(t *testing.T, gdb *gorm.DB, tenantID string) {
	t.Helper()
	if err := stage.EnsureFixed(gdb, tenantID); err != nil {
		t.Fatalf("ensure fixed stages: %v", err)
	}
	if err := db.SeedTaskTemplates(gdb, tenantID); err != nil {
		t.Fatalf("seed task templates: %v", err)
	}
}

func admin(tenantID string) auth.Identity {
	return auth.Identity{UserID: "u-admin", TenantID: tenantID, Role: auth.RoleAdmin}
}

func trainer(tenantID, userID string) auth.Identity {
	return auth.Identity{UserID: userID, TenantID: tenantID, Role: auth.RoleTrainer}
}

func mustCreateCard(t *testing.T, gdb *gorm.DB, id auth.Identity, student string) *models.Card {
	t.Helper()
	c, err := Create(gdb, id, CreateOpts{StudentID: student, ServiceType: "personal_training"})
	if err != nil {
		t.Fatalf("create card for %s: %v", student, err)
	}
	return c
}

func TestCreate_PlacesInEntryStage(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	first := mustCreateCard(t, gdb, id, "s1")
	second := mustCreateCard(t, gdb, id, "s2")

	entry, err := stage.Entry(gdb, "t1")
	if err != nil {
		t.Fatalf("entry stage: %v", err)
	}
	if first.StageID != entry.ID || second.StageID != entry.ID {
		t.Errorf("cards not in entry stage: %q / %q", first.StageID, second.StageID)
	}
	if first.Rank != ordering.Gap || second.Rank != 2*ordering.Gap {
		t.Errorf("ranks = %d / %d, want %d / %d", first.Rank, second.Rank, ordering.Gap, 2*ordering.Gap)
	}
}

func TestCreate_SeedsTasksFromTemplates(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	c := mustCreateCard(t, gdb, id, "s1")
	if len(c.Tasks) == 0 {
		t.Fatal("card has no tasks")
	}
	tasks, err := ListTasks(gdb, id, c.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != len(c.Tasks) {
		t.Fatalf("stored tasks = %d, want %d", len(tasks), len(c.Tasks))
	}
	required := 0
	for _, task := range tasks {
		if task.Status != models.TaskPending {
			t.Errorf("task %s status = %q, want pending", task.TaskKey, task.Status)
		}
		if task.IsRequired {
			required++
		}
	}
	if required == 0 {
		t.Error("no required tasks seeded")
	}

	// An unknown service type starts with an empty checklist.
	bare, err := Create(gdb, id, CreateOpts{StudentID: "s2", ServiceType: "nutrition_only"})
	if err != nil {
		t.Fatalf("create bare card: %v", err)
	}
	if len(bare.Tasks) != 0 {
		t.Errorf("bare card tasks = %d, want 0", len(bare.Tasks))
	}
}

func TestCreate_TrainerAlwaysOwnsOwnCards(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")

	c, err := Create(gdb, trainer("t1", "tr-1"), CreateOpts{
		StudentID:   "s1",
		ServiceType: "personal_training",
		TrainerID:   "tr-2", // ignored for trainers
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.TrainerID == nil || *c.TrainerID != "tr-1" {
		t.Errorf("trainer_id = %v, want tr-1", c.TrainerID)
	}
}

func TestCreate_Validation(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")

	if _, err := Create(gdb, admin("t1"), CreateOpts{ServiceType: "personal_training"}); !apierr.Is(err, apierr.CodeInvalidPayload) {
		t.Errorf("missing student err = %v, want invalid_payload", err)
	}
	support := auth.Identity{UserID: "u-s", TenantID: "t1", Role: auth.RoleSupport}
	if _, err := Create(gdb, support, CreateOpts{StudentID: "s1"}); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("support create err = %v, want forbidden", err)
	}
}

func TestGet_CrossTenantIsNotFound(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	seedTenant(t, gdb, "t2")

	c := mustCreateCard(t, gdb, admin("t1"), "s1")

	if _, err := Get(gdb, admin("t2"), c.ID); !apierr.Is(err, apierr.CodeNotFound) {
		t.Errorf("cross-tenant get err = %v, want not_found", err)
	}
}

func TestGet_TrainerSeesOnlyOwnCards(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	mine := mustCreateCard(t, gdb, id, "s1")
	other := mustCreateCard(t, gdb, id, "s2")
	if _, err := Assign(gdb, id, mine.ID, "tr-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := Assign(gdb, id, other.ID, "tr-2"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := Get(gdb, trainer("t1", "tr-1"), mine.ID); err != nil {
		t.Errorf("own card: %v", err)
	}
	if _, err := Get(gdb, trainer("t1", "tr-1"), other.ID); !apierr.Is(err, apierr.CodeNotFound) {
		t.Errorf("foreign card err = %v, want not_found", err)
	}
}

func TestList_ScopedByRole(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1")
	mustCreateCard(t, gdb, id, "s2")
	if _, err := Assign(gdb, id, a.ID, "tr-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	all, err := List(gdb, id, ListFilters{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d cards, want 2", len(all))
	}

	own, err := List(gdb, trainer("t1", "tr-1"), ListFilters{})
	if err != nil {
		t.Fatalf("trainer list: %v", err)
	}
	if len(own) != 1 || own[0].ID != a.ID {
		t.Errorf("trainer sees %d cards, want only the assigned one", len(own))
	}

	support := auth.Identity{UserID: "u-s", TenantID: "t1", Role: auth.RoleSupport}
	if _, err := List(gdb, support, ListFilters{}); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("support list err = %v, want forbidden", err)
	}
}

func TestMove_ToEndOfTargetStage(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	assessment, err := stage.Create(gdb, "t1", "Assessment", "")
	if err != nil {
		t.Fatalf("create stage: %v", err)
	}

	a := mustCreateCard(t, gdb, id, "s1")
	b := mustCreateCard(t, gdb, id, "s2")

	moved, err := Move(gdb, id, a.ID, assessment.ID)
	if err != nil {
		t.Fatalf("move a: %v", err)
	}
	if moved.StageID != assessment.ID || moved.Rank != ordering.Gap {
		t.Errorf("moved = stage %q rank %d", moved.StageID, moved.Rank)
	}

	moved2, err := Move(gdb, id, b.ID, assessment.ID)
	if err != nil {
		t.Fatalf("move b: %v", err)
	}
	if moved2.Rank != 2*ordering.Gap {
		t.Errorf("second move rank = %d, want %d", moved2.Rank, 2*ordering.Gap)
	}
}

func TestMove_ForeignStageIsNotFound(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	seedTenant(t, gdb, "t2")

	foreign, err := stage.Create(gdb, "t2", "Assessment", "")
	if err != nil {
		t.Fatalf("create foreign stage: %v", err)
	}
	c := mustCreateCard(t, gdb, admin("t1"), "s1")

	if _, err := Move(gdb, admin("t1"), c.ID, foreign.ID); !apierr.Is(err, apierr.CodeNotFound) {
		t.Errorf("move to foreign stage err = %v, want not_found", err)
	}
}

func TestPlaceAfter_Midpoint(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1") // rank 10
	b := mustCreateCard(t, gdb, id, "s2") // rank 20
	c := mustCreateCard(t, gdb, id, "s3") // rank 30

	placed, err := PlaceAfter(gdb, id, c.ID, a.ID)
	if err != nil {
		t.Fatalf("place after: %v", err)
	}
	if placed.Rank <= a.Rank || placed.Rank >= b.Rank {
		t.Errorf("rank = %d, want strictly between %d and %d", placed.Rank, a.Rank, b.Rank)
	}
}

func TestPlaceAfter_Head(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1")
	b := mustCreateCard(t, gdb, id, "s2")

	placed, err := PlaceAfter(gdb, id, b.ID, "")
	if err != nil {
		t.Fatalf("place at head: %v", err)
	}
	if placed.Rank >= a.Rank {
		t.Errorf("head rank = %d, want < %d", placed.Rank, a.Rank)
	}
}

func TestPlaceAfter_RenumbersWhenGapExhausted(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1")
	b := mustCreateCard(t, gdb, id, "s2")
	c := mustCreateCard(t, gdb, id, "s3")

	// Force adjacent ranks so no midpoint exists between a and b.
	for cardID, rank := range map[string]int{a.ID: 10, b.ID: 11, c.ID: 30} {
		if err := gdb.Model(&models.Card{}).Where("id = ?", cardID).
			Update("rank", rank).Error; err != nil {
			t.Fatalf("force rank: %v", err)
		}
	}

	placed, err := PlaceAfter(gdb, id, c.ID, a.ID)
	if err != nil {
		t.Fatalf("place after: %v", err)
	}

	cards, err := List(gdb, id, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{a.ID, placed.ID, b.ID}
	for i, want := range wantOrder {
		if cards[i].ID != want {
			t.Fatalf("order[%d] = %s, want %s", i, cards[i].ID, want)
		}
	}
	seen := map[int]bool{}
	for _, cc := range cards {
		if seen[cc.Rank] {
			t.Errorf("duplicate rank %d after renumber", cc.Rank)
		}
		seen[cc.Rank] = true
	}
}

func TestReorderInStage(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1")
	b := mustCreateCard(t, gdb, id, "s2")
	c := mustCreateCard(t, gdb, id, "s3")

	if err := ReorderInStage(gdb, id, a.StageID, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	cards, err := List(gdb, id, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{c.ID, a.ID, b.ID}
	for i, id := range want {
		if cards[i].ID != id {
			t.Errorf("order[%d] = %s, want %s", i, cards[i].ID, id)
		}
		if cards[i].Rank != (i+1)*ordering.Gap {
			t.Errorf("rank[%d] = %d, want %d", i, cards[i].Rank, (i+1)*ordering.Gap)
		}
	}
}

func TestReorderInStage_Validation(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	a := mustCreateCard(t, gdb, id, "s1")

	if err := ReorderInStage(gdb, id, a.StageID, nil); !apierr.Is(err, apierr.CodeInvalidPayload) {
		t.Errorf("empty list err = %v, want invalid_payload", err)
	}
	if err := ReorderInStage(gdb, id, a.StageID, []string{"no-such-card"}); !apierr.Is(err, apierr.CodeInvalidPayload) {
		t.Errorf("foreign card err = %v, want invalid_payload", err)
	}
	if err := ReorderInStage(gdb, id, a.StageID, []string{a.ID, a.ID}); !apierr.Is(err, apierr.CodeInvalidPayload) {
		t.Errorf("duplicate card err = %v, want invalid_payload", err)
	}
}

func TestReorderInStage_OmittedCardsUntouched(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")

	a := mustCreateCard(t, gdb, id, "s1")
	b := mustCreateCard(t, gdb, id, "s2")

	if err := ReorderInStage(gdb, id, a.StageID, []string{a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got, err := Get(gdb, id, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if got.Rank != b.Rank {
		t.Errorf("omitted card rank changed: %d -> %d", b.Rank, got.Rank)
	}
}

func TestAssign(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	c := mustCreateCard(t, gdb, id, "s1")

	assigned, err := Assign(gdb, id, c.ID, "tr-1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.TrainerID == nil || *assigned.TrainerID != "tr-1" {
		t.Errorf("trainer_id = %v, want tr-1", assigned.TrainerID)
	}

	cleared, err := Assign(gdb, id, c.ID, "")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.TrainerID != nil {
		t.Errorf("trainer_id = %v, want nil", cleared.TrainerID)
	}

	if _, err := Assign(gdb, trainer("t1", "tr-1"), c.ID, "tr-1"); !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("trainer assign err = %v, want forbidden", err)
	}
}

func TestDelete(t *testing.T) {
	gdb := testDB(t)
	seedTenant(t, gdb, "t1")
	id := admin("t1")
	c := mustCreateCard(t, gdb, id, "s1")

	if err := Delete(gdb, id, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := Get(gdb, id, c.ID); !apierr.Is(err, apierr.CodeNotFound) {
		t.Errorf("get after delete err = %v, want not_found", err)
	}
	var tasks int64
	if err := gdb.Model(&models.CardTask{}).Where("card_id = ?", c.ID).Count(&tasks).Error; err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if tasks != 0 {
		t.Errorf("tasks after delete = %d, want 0", tasks)
	}
}
