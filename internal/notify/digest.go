package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitops/coachdesk/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Digester periodically reports cards that have sat untouched for too
// long, one digest per tenant.
type Digester struct {
	db        *gorm.DB
	notifier  *Notifier
	log       *zap.Logger
	stallDays int
	cron      *cron.Cron
}

// NewDigester builds a stalled-card digester. stallDays below 1 falls
// back to 7.
func NewDigester(db *gorm.DB, notifier *Notifier, log *zap.Logger, stallDays int) *Digester {
	if stallDays < 1 {
		stallDays = 7
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Digester{db: db, notifier: notifier, log: log, stallDays: stallDays}
}

// Start schedules the digest on the given cron spec.
func (d *Digester) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := d.Run(ctx); err != nil {
			d.log.Error("stalled digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("notify: schedule digest %q: %w", spec, err)
	}
	c.Start()
	d.cron = c
	return nil
}

// Stop halts the schedule and waits for a running digest to finish.
func (d *Digester) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
}

// Run builds and publishes one digest per tenant with stalled cards.
// Tenants with no stalled cards are skipped.
func (d *Digester) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -d.stallDays)

	var stalled []models.Card
	err := d.db.WithContext(ctx).
		Where("completed_at IS NULL AND updated_at < ?", cutoff).
		Order("tenant_id ASC, updated_at ASC").
		Find(&stalled).Error
	if err != nil {
		return fmt.Errorf("notify: load stalled cards: %w", err)
	}
	if len(stalled) == 0 {
		return nil
	}

	byTenant := make(map[string][]models.Card)
	for _, c := range stalled {
		byTenant[c.TenantID] = append(byTenant[c.TenantID], c)
	}
	for tenantID, cards := range byTenant {
		d.notifier.Publish(ctx, Event{
			Type:     EventStalledDigest,
			TenantID: tenantID,
			Title:    fmt.Sprintf("%d stalled onboarding cards", len(cards)),
			Body:     formatStalled(cards, d.stallDays),
			Color:    ColorWarning,
		})
	}
	return nil
}

func formatStalled(cards []models.Card, stallDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No movement for over %d days:\n", stallDays)
	for _, c := range cards {
		trainer := "unassigned"
		if c.TrainerID != nil && *c.TrainerID != "" {
			trainer = *c.TrainerID
		}
		fmt.Fprintf(&b, "- student %s (trainer %s, idle since %s)\n",
			c.StudentID, trainer, c.UpdatedAt.Format("2006-01-02"))
	}
	return b.String()
}
