package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/cache"
	"github.com/fitops/coachdesk/internal/models"
	"gorm.io/gorm"
)

// Pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// HistoryFilters narrows the completion history query.
type HistoryFilters struct {
	From      *time.Time
	To        *time.Time
	TrainerID string
	Page      int
	PageSize  int
}

// normalize clamps pagination to sane bounds.
func (f *HistoryFilters) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

func (f *HistoryFilters) cacheKey(tenantID string) string {
	from, to := "", ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339)
	}
	return cache.Key(tenantID, "history",
		fmt.Sprintf("tr=%s", f.TrainerID),
		fmt.Sprintf("from=%s", from),
		fmt.Sprintf("to=%s", to),
		fmt.Sprintf("p=%d", f.Page),
		fmt.Sprintf("n=%d", f.PageSize))
}

// HistoryPage is one page of completion records, newest first.
type HistoryPage struct {
	Records  []models.HistoryRecord `json:"records"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// ListHistory returns completed cards ordered by completion time
// descending. Trainers only ever see their own completions. Pages are
// served from Redis when available; the cache is invalidated on every
// new completion.
func ListHistory(ctx context.Context, db *gorm.DB, c *cache.Cache, id auth.Identity, filters HistoryFilters) (*HistoryPage, error) {
	switch id.Role {
	case auth.RoleAdmin, auth.RoleManager:
	case auth.RoleTrainer:
		filters.TrainerID = id.UserID
	default:
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot view history", id.Role))
	}
	filters.normalize()

	key := filters.cacheKey(id.TenantID)
	var page HistoryPage
	if c.GetJSON(ctx, key, &page) {
		return &page, nil
	}

	q := db.WithContext(ctx).Model(&models.HistoryRecord{}).
		Where("tenant_id = ?", id.TenantID)
	if filters.TrainerID != "" {
		q = q.Where("trainer_id = ?", filters.TrainerID)
	}
	if filters.From != nil {
		q = q.Where("completed_at >= ?", filters.From)
	}
	if filters.To != nil {
		q = q.Where("completed_at <= ?", filters.To)
	}

	if err := q.Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("tree: count history: %w", err)
	}
	err := q.Order("completed_at DESC").
		Offset((filters.Page - 1) * filters.PageSize).
		Limit(filters.PageSize).
		Find(&page.Records).Error
	if err != nil {
		return nil, fmt.Errorf("tree: list history: %w", err)
	}

	page.Page = filters.Page
	page.PageSize = filters.PageSize
	c.SetJSON(ctx, key, &page)
	return &page, nil
}

// InvalidateHistory drops every cached history page for the tenant.
// Called after each successful completion.
func InvalidateHistory(ctx context.Context, c *cache.Cache, tenantID string) {
	c.Invalidate(ctx, tenantID, "history")
}
