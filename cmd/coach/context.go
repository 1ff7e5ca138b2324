package main

import (
	"fmt"

	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/config"
	"github.com/fitops/coachdesk/internal/db"
	"gorm.io/gorm"
)

// cliUserID identifies operator actions in the audit log.
const cliUserID = "cli"

// openDB loads the config and connects to the tenant database.
func openDB(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

// cliIdentity builds the operator identity for core calls. The CLI runs
// with admin scope inside the chosen tenant.
func cliIdentity(tenantID string) (auth.Identity, error) {
	if tenantID == "" {
		return auth.Identity{}, fmt.Errorf("--tenant is required")
	}
	return auth.Identity{UserID: cliUserID, TenantID: tenantID, Role: auth.RoleAdmin}, nil
}
