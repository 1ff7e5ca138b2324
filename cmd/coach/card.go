package main

import (
	"fmt"

	"github.com/fitops/coachdesk/internal/card"
	"github.com/fitops/coachdesk/internal/completion"
	"github.com/spf13/cobra"
)

func newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage onboarding cards",
	}

	cmd.AddCommand(newCardListCmd())
	cmd.AddCommand(newCardCreateCmd())
	cmd.AddCommand(newCardMoveCmd())
	cmd.AddCommand(newCardAssignCmd())
	cmd.AddCommand(newCardCompleteCmd())
	cmd.AddCommand(newCardDeleteCmd())
	return cmd
}

func newCardListCmd() *cobra.Command {
	var configPath, tenantID, stageID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			cards, err := card.List(gdb, id, card.ListFilters{StageID: stageID})
			if err != nil {
				return err
			}
			printCards(cmd.OutOrStdout(), cards)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant whose cards to list")
	cmd.Flags().StringVar(&stageID, "stage", "", "limit to one stage")
	return cmd
}

func newCardCreateCmd() *cobra.Command {
	var configPath, tenantID, service, trainerID string

	cmd := &cobra.Command{
		Use:   "create <student-id>",
		Short: "Create a card in the entry stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			c, err := card.Create(gdb, id, card.CreateOpts{
				StudentID:   args[0],
				ServiceType: service,
				TrainerID:   trainerID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %s for student %s (%d tasks)\n", c.ID, c.StudentID, len(c.Tasks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant to create the card in")
	cmd.Flags().StringVar(&service, "service", "personal_training", "service type (drives the task checklist)")
	cmd.Flags().StringVar(&trainerID, "trainer", "", "trainer to assign")
	return cmd
}

func newCardMoveCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "move <card-id> <stage-id>",
		Short: "Move a card to the end of another stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			c, err := card.Move(gdb, id, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved card %s to stage %s (rank %d)\n", c.ID, c.StageID, c.Rank)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the card belongs to")
	return cmd
}

func newCardAssignCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "assign <card-id> [trainer-id]",
		Short: "Assign a trainer to a card, or clear the assignment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			trainerID := ""
			if len(args) == 2 {
				trainerID = args[1]
			}
			c, err := card.Assign(gdb, id, args[0], trainerID)
			if err != nil {
				return err
			}
			if c.TrainerID == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Card %s is now unassigned\n", c.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Card %s assigned to %s\n", c.ID, *c.TrainerID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the card belongs to")
	return cmd
}

func newCardCompleteCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "complete <card-id>",
		Short: "Complete a card from the exit stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			res, err := completion.Complete(gdb, id, args[0])
			if err != nil {
				return err
			}
			if res.AlreadyCompleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Card %s was already completed\n", res.Card.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed card %s for student %s\n", res.Card.ID, res.Card.StudentID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the card belongs to")
	return cmd
}

func newCardDeleteCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "delete <card-id>",
		Short: "Delete an uncompleted card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliIdentity(tenantID)
			if err != nil {
				return err
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			if err := card.Delete(gdb, id, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the card belongs to")
	return cmd
}
