package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/tree"
)

func TestPrintStages(t *testing.T) {
	buf := new(bytes.Buffer)
	printStages(buf, []models.Stage{
		{ID: "s-entry", Title: models.TitleEntryStage, Position: models.PositionEntry},
		{ID: "s-mid", Title: "Assessment", Position: 10},
		{ID: "s-exit", Title: models.TitleExitStage, Position: models.PositionExit},
	})

	out := buf.String()
	if !strings.Contains(out, "Assessment") {
		t.Errorf("output missing stage title:\n%s", out)
	}
	if strings.Count(out, "yes") != 2 {
		t.Errorf("fixed markers = %d, want 2:\n%s", strings.Count(out, "yes"), out)
	}
}

func TestPrintCards(t *testing.T) {
	trainer := "tr-1"
	now := time.Now()
	buf := new(bytes.Buffer)
	printCards(buf, []models.Card{
		{ID: "c1", StudentID: "s1", StageID: "st1", Rank: 10, TrainerID: &trainer},
		{ID: "c2", StudentID: "s2", StageID: "st1", Rank: 20, CompletedAt: &now},
	})

	out := buf.String()
	if !strings.Contains(out, "tr-1") {
		t.Errorf("output missing trainer:\n%s", out)
	}
	if !strings.Contains(out, "completed") || !strings.Contains(out, "active") {
		t.Errorf("output missing statuses:\n%s", out)
	}
}

func TestPrintTreeAndHistory(t *testing.T) {
	buf := new(bytes.Buffer)
	printTree(buf, &tree.TrainerTree{
		TenantID: "t1",
		Total:    1,
		Buckets: []tree.Bucket{
			{TrainerID: "unassigned", Cards: []models.Card{{ID: "c1", StudentID: "s1", StageID: "st1"}}},
		},
	})
	if out := buf.String(); !strings.Contains(out, "unassigned (1)") {
		t.Errorf("tree output:\n%s", out)
	}

	buf.Reset()
	printHistory(buf, &tree.HistoryPage{
		Records: []models.HistoryRecord{
			{CardID: "c1", StudentID: "s1", CompletedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		},
		Total: 1, Page: 1, PageSize: 20,
	})
	if out := buf.String(); !strings.Contains(out, "2026-03-01 09:00") {
		t.Errorf("history output:\n%s", out)
	}
}
