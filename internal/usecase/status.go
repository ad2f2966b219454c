package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

type statusChange struct {
	To     entity.LeadStatus
	Reason string
	Meta   entity.StatusMeta
	// At overrides the change time, e.g. the date a callback is scheduled for.
	At *time.Time
}

type statusWriter struct {
	leads   entity.LeadRepositoryInterface
	history entity.StatusHistoryRepositoryInterface
	now     func() time.Time
}

// apply checks the transition table, appends a history row and updates the
// lead. A same-status change still writes history and bumps last activity.
func (w statusWriter) apply(ctx context.Context, l *entity.Lead, actorID int64, ch statusChange) (*entity.LeadStatusHistory, error) {
	if !lifecycle.IsTransitionAllowed(l.CurrentStatus, ch.To) {
		return nil, invalid(fmt.Sprintf("Transition %s -> %s not allowed", l.CurrentStatus, ch.To))
	}

	at := w.now().UTC()
	if ch.At != nil {
		at = ch.At.UTC()
	}
	from := l.CurrentStatus
	h := &entity.LeadStatusHistory{
		LeadID:          l.ID,
		ChangedByUserID: actorID,
		FromStatus:      &from,
		ToStatus:        ch.To,
		ChangedAt:       at,
		Reason:          ch.Reason,
		Meta:            ch.Meta,
	}
	if err := w.history.Create(ctx, h); err != nil {
		return nil, technical("write status history", err)
	}

	if from != ch.To {
		l.CurrentStatus = ch.To
		l.StatusUpdatedAt = at
	}
	l.LastActivityAt = &at
	if err := w.leads.SaveStatus(ctx, l); err != nil {
		return nil, technical("save lead status", err)
	}
	return h, nil
}

// applyIfAllowed is apply for side effects that are skipped, not failed,
// when the table forbids them.
func (w statusWriter) applyIfAllowed(ctx context.Context, l *entity.Lead, actorID int64, ch statusChange) error {
	if !lifecycle.IsTransitionAllowed(l.CurrentStatus, ch.To) {
		return nil
	}
	_, err := w.apply(ctx, l, actorID, ch)
	return err
}
