package entity

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditCreate      AuditAction = "create"
	AuditUpdate      AuditAction = "update"
	AuditDelete      AuditAction = "delete"
	AuditLogin       AuditAction = "login"
	AuditLogout      AuditAction = "logout"
	AuditLoginFailed AuditAction = "login_failed"
	AuditExport      AuditAction = "export"
)

type AuditLog struct {
	ID          int64       `json:"id"`
	ActorUserID *int64      `json:"actorUserId,omitempty"`
	Action      AuditAction `json:"action"`
	ObjectType  string      `json:"objectType"`
	ObjectID    *int64      `json:"objectId,omitempty"`
	Diff        string      `json:"diff,omitempty"`
	Context     string      `json:"context,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type AuditFilter struct {
	Action *AuditAction
	UserID *int64
	Skip   int
	Limit  int
}

type AuditRepositoryInterface interface {
	Create(ctx context.Context, l *AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]*AuditLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
