package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type KPIConfigRepository struct {
	DB *Conn
}

func NewKPIConfigRepository(db *Conn) *KPIConfigRepository {
	return &KPIConfigRepository{DB: db}
}

const kpiConfigColumns = `id, name, label, description, formula, warn_threshold, good_threshold, visibility_roles`

func scanKPIConfig(row rowScanner) (*entity.KPIConfig, error) {
	c := &entity.KPIConfig{VisibilityRoles: []entity.UserRole{}}
	err := row.Scan(&c.ID, &c.Name, &c.Label, &c.Description, &c.Formula,
		&c.WarnThreshold, &c.GoodThreshold, jsonCol{&c.VisibilityRoles})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *KPIConfigRepository) List(ctx context.Context) ([]*entity.KPIConfig, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+kpiConfigColumns+` FROM kpi_configs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list kpi configs: %w", err)
	}
	defer rows.Close()

	out := []*entity.KPIConfig{}
	for rows.Next() {
		c, err := scanKPIConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kpi config: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *KPIConfigRepository) FindByName(ctx context.Context, name string) (*entity.KPIConfig, error) {
	c, err := scanKPIConfig(r.DB.QueryRowContext(ctx, `SELECT `+kpiConfigColumns+` FROM kpi_configs WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrKPIConfigNotFound
		}
		return nil, fmt.Errorf("find kpi config: %w", err)
	}
	return c, nil
}

// Upsert inserts c or replaces the row with the same name.
func (r *KPIConfigRepository) Upsert(ctx context.Context, c *entity.KPIConfig) error {
	roles := c.VisibilityRoles
	if roles == nil {
		roles = []entity.UserRole{}
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO kpi_configs (name, label, description, formula, warn_threshold, good_threshold, visibility_roles)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			label = excluded.label,
			description = excluded.description,
			formula = excluded.formula,
			warn_threshold = excluded.warn_threshold,
			good_threshold = excluded.good_threshold,
			visibility_roles = excluded.visibility_roles
		RETURNING id
	`, c.Name, c.Label, c.Description, c.Formula, nullFloat64(c.WarnThreshold), nullFloat64(c.GoodThreshold), toJSON(roles),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert kpi config: %w", err)
	}
	return nil
}
