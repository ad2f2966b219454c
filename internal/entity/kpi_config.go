package entity

import (
	"context"
	"errors"
)

var ErrKPIConfigNotFound = errors.New("kpi config not found")

// KPIConfig holds display metadata and thresholds for one KPI.
type KPIConfig struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Label           string     `json:"label"`
	Description     string     `json:"description,omitempty"`
	Formula         string     `json:"formula,omitempty"`
	WarnThreshold   *float64   `json:"warnThreshold"`
	GoodThreshold   *float64   `json:"goodThreshold"`
	VisibilityRoles []UserRole `json:"visibility"`
}

// VisibleTo reports whether the role may see this KPI.
func (c *KPIConfig) VisibleTo(role UserRole) bool {
	for _, r := range c.VisibilityRoles {
		if r == role {
			return true
		}
	}
	return false
}

type KPIConfigRepositoryInterface interface {
	List(ctx context.Context) ([]*KPIConfig, error)
	FindByName(ctx context.Context, name string) (*KPIConfig, error)
	Upsert(ctx context.Context, c *KPIConfig) error
}
