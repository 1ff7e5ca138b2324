package main

import (
	"fmt"
	"time"

	"github.com/fitops/coachdesk/internal/tree"
	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show active cards grouped by trainer",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			t, err := tree.BuildTrainerTree(cmd.Context(), gdb, id)
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), t)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant whose tree to show")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var configPath, tenantID, trainerID, from, to string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed cards, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}

			filters := tree.HistoryFilters{TrainerID: trainerID, Page: page, PageSize: pageSize}
			if from != "" {
				t, err := time.Parse("2006-01-02", from)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				filters.From = &t
			}
			if to != "" {
				t, err := time.Parse("2006-01-02", to)
				if err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
				filters.To = &t
			}

			result, err := tree.ListHistory(cmd.Context(), gdb, nil, id, filters)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant whose history to show")
	cmd.Flags().StringVar(&trainerID, "trainer", "", "limit to one trainer")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "records per page")
	return cmd
}
