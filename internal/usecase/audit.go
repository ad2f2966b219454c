package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// auditEntry describes one audit row. Diff and Context are encoded as JSON
// when non-nil.
type auditEntry struct {
	Actor      *int64
	Action     entity.AuditAction
	ObjectType string
	ObjectID   *int64
	Diff       any
	Context    any
}

type auditor struct {
	repo entity.AuditRepositoryInterface
	log  logger.Logger
	now  func() time.Time
}

// record writes e. Failures are logged and never fail the request.
func (a auditor) record(ctx context.Context, e auditEntry) {
	if a.repo == nil {
		return
	}
	row := &entity.AuditLog{
		ActorUserID: e.Actor,
		Action:      e.Action,
		ObjectType:  e.ObjectType,
		ObjectID:    e.ObjectID,
		Diff:        encodeAudit(e.Diff),
		Context:     encodeAudit(e.Context),
		CreatedAt:   a.now().UTC(),
	}
	if err := a.repo.Create(ctx, row); err != nil {
		a.log.Warn("audit log write failed", "action", e.Action, "object_type", e.ObjectType, "error", err)
	}
}

func encodeAudit(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func ptr[T any](v T) *T { return &v }

// change is the old/new pair stored in update diffs.
type change struct {
	Old any `json:"old"`
	New any `json:"new"`
}
