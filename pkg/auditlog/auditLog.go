package auditlog

import (
	"context"
	"time"

	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// Sink stores or forwards one audit entry.
type Sink interface {
	PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error
}

type Auditlog struct {
	sink   Sink
	logger *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Log is best effort: failures are logged and never reach the caller.
// Callers run it in its own goroutine.
func (a *Auditlog) Log(action string, actor models.Actor, data interface{}, item Auditable) {
	if a == nil || a.sink == nil {
		return
	}

	auditLog := item.CreateLogView()
	auditLog.Action = action
	auditLog.ActorID = actor.ID
	auditLog.ActorName = actor.Name

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := a.sink.PersistLog(ctx, auditLog, data); err != nil {
		a.logger.Warn("Unable to create AuditLog entry",
			zap.String("resource_id", auditLog.ResourceID),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	a.logger.Debug("Created AuditLog entry",
		zap.String("resource_id", auditLog.ResourceID),
		zap.String("action", action),
	)
}

func NewAuditLog(sink Sink, logger *zap.Logger) *Auditlog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditlog{sink: sink, logger: logger}
}
