package audit

import (
	"context"

	"property-service/internal/model"
	"property-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actions written to the audit log
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Record writes an audit_logs row. A failed write is logged and swallowed so
// it never fails the request that triggered it.
func Record(ctx context.Context, db *gorm.DB, actorID, action, entityType, entityID string) {
	entry := &model.AuditLog{
		Action:     action,
		EntityType: entityType,
	}
	if actorID != "" {
		entry.ActorUserID = &actorID
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}

	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.FromStdContext(ctx).Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}
