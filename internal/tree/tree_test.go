package tree

import (
	"context"
	"testing"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/card"
	"github.com/fitops/coachdesk/internal/completion"
	"github.com/fitops/coachdesk/internal/db"
	"github.com/fitops/coachdesk/internal/models"
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

func admin(tenantID string) auth.Identity {
	return auth.Identity{UserID: "u-admin", TenantID: tenantID, Role: auth.RoleAdmin}
}

func seedCards(t *testing.T, gdb *gorm.DB, id auth.Identity) (assigned, unassigned *models.Card) {
	t.Helper()
	if err := stage.EnsureFixed(gdb, id.TenantID); err != nil {
		t.Fatalf("ensure fixed stages: %v", err)
	}
	a, err := card.Create(gdb, id, card.CreateOpts{StudentID: "s1", TrainerID: "tr-1"})
	if err != nil {
		t.Fatalf("create assigned card: %v", err)
	}
	u, err := card.Create(gdb, id, card.CreateOpts{StudentID: "s2"})
	if err != nil {
		t.Fatalf("create unassigned card: %v", err)
	}
	return a, u
}

func TestBuildTrainerTree_GroupsByTrainer(t *testing.T) {
	gdb := testDB(t)
	id := admin("t1")
	a, u := seedCards(t, gdb, id)

	tr, err := BuildTrainerTree(context.Background(), gdb, id)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	if tr.Total != 2 || len(tr.Buckets) != 2 {
		t.Fatalf("tree = %d cards in %d buckets, want 2/2", tr.Total, len(tr.Buckets))
	}
	if tr.Buckets[0].TrainerID != "tr-1" || tr.Buckets[0].Cards[0].ID != a.ID {
		t.Errorf("first bucket = %+v, want tr-1", tr.Buckets[0])
	}
	last := tr.Buckets[len(tr.Buckets)-1]
	if last.TrainerID != UnassignedBucket || last.Cards[0].ID != u.ID {
		t.Errorf("last bucket = %+v, want unassigned", last)
	}
}

func TestBuildTrainerTree_ExcludesCompleted(t *testing.T) {
	gdb := testDB(t)
	id := admin("t1")
	a, _ := seedCards(t, gdb, id)

	exit, err := stage.Exit(gdb, "t1")
	if err != nil {
		t.Fatalf("exit stage: %v", err)
	}
	if _, err := card.Move(gdb, id, a.ID, exit.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := completion.Complete(gdb, id, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	tr, err := BuildTrainerTree(context.Background(), gdb, id)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	if tr.Total != 1 {
		t.Errorf("tree total = %d, want 1 after completion", tr.Total)
	}
	for _, b := range tr.Buckets {
		for _, c := range b.Cards {
			if c.ID == a.ID {
				t.Error("completed card still in tree")
			}
		}
	}
}

func TestBuildTrainerTree_TrainerSeesOwnBucketOnly(t *testing.T) {
	gdb := testDB(t)
	id := admin("t1")
	a, _ := seedCards(t, gdb, id)

	tr, err := BuildTrainerTree(context.Background(), gdb, auth.Identity{
		UserID: "tr-1", TenantID: "t1", Role: auth.RoleTrainer,
	})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	if len(tr.Buckets) != 1 || tr.Buckets[0].TrainerID != "tr-1" {
		t.Fatalf("trainer tree buckets = %+v, want only tr-1", tr.Buckets)
	}
	if tr.Total != 1 || tr.Buckets[0].Cards[0].ID != a.ID {
		t.Errorf("trainer tree = %+v", tr)
	}
}

func TestBuildTrainerTree_SupportForbidden(t *testing.T) {
	gdb := testDB(t)
	seedCards(t, gdb, admin("t1"))

	_, err := BuildTrainerTree(context.Background(), gdb, auth.Identity{
		UserID: "u-s", TenantID: "t1", Role: auth.RoleSupport,
	})
	if !apierr.Is(err, apierr.CodeForbidden) {
		t.Errorf("support tree err = %v, want forbidden", err)
	}
}
