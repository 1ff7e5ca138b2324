package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/tree"
)

func printStages(out io.Writer, stages []models.Stage) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tID\tTITLE\tFIXED")
	for _, s := range stages {
		fixed := ""
		if s.IsEntry() || s.IsExit() {
			fixed = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Position, s.ID, s.Title, fixed)
	}
	w.Flush()
}

func printCards(out io.Writer, cards []models.Card) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tSTAGE\tRANK\tTRAINER\tSTATUS")
	for _, c := range cards {
		trainer := "-"
		if c.TrainerID != nil {
			trainer = *c.TrainerID
		}
		status := "active"
		if c.Completed() {
			status = "completed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", c.ID, c.StudentID, c.StageID, c.Rank, trainer, status)
	}
	w.Flush()
}

func printTree(out io.Writer, t *tree.TrainerTree) {
	fmt.Fprintf(out, "%d active cards\n", t.Total)
	for _, b := range t.Buckets {
		fmt.Fprintf(out, "\n%s (%d)\n", b.TrainerID, len(b.Cards))
		for _, c := range b.Cards {
			stage := c.StageID
			if c.Stage.Title != "" {
				stage = c.Stage.Title
			}
			fmt.Fprintf(out, "  %s  student %s  [%s]\n", c.ID, c.StudentID, stage)
		}
	}
}

func printHistory(out io.Writer, page *tree.HistoryPage) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMPLETED\tCARD\tSTUDENT\tTRAINER")
	for _, rec := range page.Records {
		trainer := "-"
		if rec.TrainerID != nil {
			trainer = *rec.TrainerID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.CompletedAt.Format("2006-01-02 15:04"), rec.CardID, rec.StudentID, trainer)
	}
	w.Flush()
	fmt.Fprintf(out, "page %d of %d records\n", page.Page, page.Total)
}
