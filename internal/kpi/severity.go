package kpi

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityDefault Severity = "default"
)

// Classify grades value against the thresholds of cfg. Without any threshold
// the value is neutral.
func Classify(value float64, cfg *entity.KPIConfig) Severity {
	if cfg == nil || (cfg.WarnThreshold == nil && cfg.GoodThreshold == nil) {
		return SeverityDefault
	}
	if cfg.GoodThreshold != nil && value >= *cfg.GoodThreshold {
		return SeveritySuccess
	}
	if cfg.WarnThreshold != nil && value >= *cfg.WarnThreshold {
		return SeverityWarning
	}
	return SeverityDanger
}
