package usecase

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// KPIConfigUpdate changes one KPI. Nil thresholds clear the threshold; a nil
// visibility keeps the current roles.
type KPIConfigUpdate struct {
	Label         *string           `json:"label" validate:"omitempty,max=100"`
	Description   *string           `json:"description" validate:"omitempty,max=500"`
	WarnThreshold *float64          `json:"warnThreshold"`
	GoodThreshold *float64          `json:"goodThreshold"`
	Visibility    []entity.UserRole `json:"visibility"`
}

type KPIConfigUseCase struct {
	Configs entity.KPIConfigRepositoryInterface
	Audit   entity.AuditRepositoryInterface
	Cache   Cache
	Log     logger.Logger
	Now     func() time.Time
}

func NewKPIConfigUseCase(configs entity.KPIConfigRepositoryInterface, audit entity.AuditRepositoryInterface, c Cache, log logger.Logger) *KPIConfigUseCase {
	return &KPIConfigUseCase{Configs: configs, Audit: audit, Cache: c, Log: log, Now: time.Now}
}

// All returns every configuration, seeding missing defaults first.
func (uc *KPIConfigUseCase) All(ctx context.Context) ([]*entity.KPIConfig, error) {
	existing, err := uc.Configs.List(ctx)
	if err != nil {
		return nil, technical("list kpi configs", err)
	}
	names := make(map[string]bool, len(existing))
	for _, c := range existing {
		names[c.Name] = true
	}
	seeded := false
	for _, d := range kpi.Defaults() {
		if names[d.Name] {
			continue
		}
		if err := uc.Configs.Upsert(ctx, d); err != nil {
			return nil, technical("seed kpi config", err)
		}
		seeded = true
	}
	if !seeded {
		return existing, nil
	}
	all, err := uc.Configs.List(ctx)
	if err != nil {
		return nil, technical("list kpi configs", err)
	}
	return all, nil
}

// Visible returns the configurations the actor's role may see.
func (uc *KPIConfigUseCase) Visible(ctx context.Context, actor *entity.User) ([]*entity.KPIConfig, error) {
	all, err := uc.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.KPIConfig, 0, len(all))
	for _, c := range all {
		if c.VisibleTo(actor.Role) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (uc *KPIConfigUseCase) Update(ctx context.Context, actor *entity.User, name string, in KPIConfigUpdate) (*entity.KPIConfig, error) {
	if err := RequireRoles(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	for _, r := range in.Visibility {
		if !r.IsValid() {
			return nil, invalid("visibility enthält eine ungültige Rolle")
		}
	}
	if _, err := uc.All(ctx); err != nil {
		return nil, err
	}
	cfg, err := uc.Configs.FindByName(ctx, name)
	if errors.Is(err, entity.ErrKPIConfigNotFound) {
		return nil, notFound(msgKPINotFound)
	}
	if err != nil {
		return nil, technical("load kpi config", err)
	}

	changes := map[string]any{}
	if in.Label != nil && *in.Label != cfg.Label {
		changes["label"] = change{cfg.Label, *in.Label}
		cfg.Label = *in.Label
	}
	if in.Description != nil && *in.Description != cfg.Description {
		changes["description"] = change{cfg.Description, *in.Description}
		cfg.Description = *in.Description
	}
	if !sameThreshold(in.WarnThreshold, cfg.WarnThreshold) {
		changes["warnThreshold"] = change{cfg.WarnThreshold, in.WarnThreshold}
		cfg.WarnThreshold = in.WarnThreshold
	}
	if !sameThreshold(in.GoodThreshold, cfg.GoodThreshold) {
		changes["goodThreshold"] = change{cfg.GoodThreshold, in.GoodThreshold}
		cfg.GoodThreshold = in.GoodThreshold
	}
	if in.Visibility != nil && !slices.Equal(in.Visibility, cfg.VisibilityRoles) {
		changes["visibility"] = change{cfg.VisibilityRoles, in.Visibility}
		cfg.VisibilityRoles = in.Visibility
	}

	if len(changes) == 0 {
		return cfg, nil
	}
	if err := uc.Configs.Upsert(ctx, cfg); err != nil {
		return nil, technical("save kpi config", err)
	}
	changes["name"] = name
	auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}.record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "KPIConfig", Diff: changes,
	})
	invalidate(ctx, uc.Cache, uc.Log, groupKPIs)
	return cfg, nil
}

func sameThreshold(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
