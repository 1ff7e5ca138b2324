package main

import (
	"fmt"
	"strings"

	"github.com/fitops/coachdesk/internal/stage"
	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage pipeline stages",
	}

	cmd.AddCommand(newStageListCmd())
	cmd.AddCommand(newStageCreateCmd())
	cmd.AddCommand(newStageRenameCmd())
	cmd.AddCommand(newStageReorderCmd())
	cmd.AddCommand(newStageDeleteCmd())
	return cmd
}

func newStageListCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's stages in board order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			stages, err := stage.List(gdb, tenantID)
			if err != nil {
				return err
			}
			printStages(cmd.OutOrStdout(), stages)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant whose stages to list")
	return cmd
}

func newStageCreateCmd() *cobra.Command {
	var configPath, tenantID, color string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a stage before the exit stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			s, err := stage.Create(gdb, tenantID, strings.Join(args, " "), color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created stage %s (%s) at position %d\n", s.Title, s.ID, s.Position)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant to create the stage in")
	cmd.Flags().StringVar(&color, "color", "", "board color hint")
	return cmd
}

func newStageRenameCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "rename <stage-id> <title>",
		Short: "Rename a non-fixed stage",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			s, err := stage.Rename(gdb, tenantID, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed stage %s to %q\n", s.ID, s.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the stage belongs to")
	return cmd
}

func newStageReorderCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "reorder <stage-id>...",
		Short: "Reorder the non-fixed stages",
		Long:  "Renumbers the listed stages into the given order. The entry and exit stages keep their positions.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			if err := stage.Reorder(gdb, tenantID, args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d stages\n", len(args))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant whose stages to reorder")
	return cmd
}

func newStageDeleteCmd() *cobra.Command {
	var configPath, tenantID string
	var migrate bool

	cmd := &cobra.Command{
		Use:   "delete <stage-id>",
		Short: "Delete a non-fixed stage",
		Long:  "Deletes a stage. With --migrate, its cards move to the entry stage; without, a populated stage is refused.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			_, gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			if err := stage.Delete(gdb, tenantID, args[0], migrate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted stage %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the stage belongs to")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "move the stage's cards to the entry stage")
	return cmd
}
