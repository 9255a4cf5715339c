package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/pkg/models"
)

// LogCaseActivity inserts an audit record into case_activities.
// Used to track case creation and status changes.
// Errors are ignored on purpose (best-effort logging).
func LogCaseActivity(
	ctx context.Context,
	db *gorm.DB,
	caseID string,
	action string,
	oldS, newS models.CaseStatus,
	note string,
) {
	_ = db.WithContext(ctx).Create(&models.CaseActivity{
		ID:        uuid.New(),
		CaseID:    caseID,
		Action:    action,
		OldStatus: oldS,
		NewStatus: newS,
		Note:      note,
		CreatedAt: time.Now(),
	}).Error
}

// HumanSize renders a byte count the way the UI shows document sizes
// ("1.2 MB", "340.5 KB").
func HumanSize(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
