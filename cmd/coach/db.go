package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fitops/coachdesk/internal/config"
	"github.com/fitops/coachdesk/internal/db"
	"github.com/fitops/coachdesk/internal/stage"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the CoachDesk database",
		Long:  "Creates the MySQL database and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adminDB, err := db.ConnectAdmin(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.DB.Host, cfg.DB.Port, err)
	}
	if err := db.CreateDatabase(adminDB, cfg.DB.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.DB.Database)

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func newDBSeedCmd() *cobra.Command {
	var configPath, tenantID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a tenant's board",
		Long:  "Creates the fixed entry and exit stages plus the default task templates for one tenant.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBSeed(cmd, configPath, tenantID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant to seed")
	return cmd
}

func runDBSeed(cmd *cobra.Command, configPath, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}
	_, gdb, err := openDB(configPath)
	if err != nil {
		return err
	}
	if err := stage.EnsureFixed(gdb, tenantID); err != nil {
		return err
	}
	if err := db.SeedTaskTemplates(gdb, tenantID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded board for tenant %s\n", tenantID)
	return nil
}

func newDBResetCmd() *cobra.Command {
	var configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the CoachDesk database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, force bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !force {
		fmt.Fprintf(out, "This drops database %q and all pipeline history. Continue? [y/N] ", cfg.DB.Database)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "y" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	adminDB, err := db.ConnectAdmin(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.DB.Host, cfg.DB.Port, err)
	}
	if err := db.DropDatabase(adminDB, cfg.DB.Database); err != nil {
		return err
	}
	if err := db.CreateDatabase(adminDB, cfg.DB.Database); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s reset\n", cfg.DB.Database)
	return nil
}
