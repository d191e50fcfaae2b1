package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/instatools/billing/internal/models"
)

// GetActivePlan возвращает план каталога, доступный для покупки.
// Отсутствующий или выключенный план — ErrPlanNotFound.
func (s *Storage) GetActivePlan(ctx context.Context, planID int64) (*models.Plan, error) {
	const op = "storage.GetActivePlan"

	query := `SELECT id, name, price_idr, duration_days, allow_addons, is_active
			  FROM subscription_plans
			  WHERE id = $1 AND is_active = TRUE`
	row := s.DB.QueryRowContext(ctx, query, planID)

	var plan models.Plan
	err := row.Scan(&plan.ID, &plan.Name, &plan.PriceIDR, &plan.DurationDays, &plan.AllowAddons, &plan.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// GetPlan возвращает план каталога независимо от флага is_active.
// Нужен для расчёта кредита апгрейда: активная подписка могла быть
// куплена на уже выключенный план.
func (s *Storage) GetPlan(ctx context.Context, planID int64) (*models.Plan, error) {
	const op = "storage.GetPlan"

	query := `SELECT id, name, price_idr, duration_days, allow_addons, is_active
			  FROM subscription_plans
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, planID)

	var plan models.Plan
	err := row.Scan(&plan.ID, &plan.Name, &plan.PriceIDR, &plan.DurationDays, &plan.AllowAddons, &plan.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// ListActivePlans возвращает каталог доступных планов по возрастанию цены.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListActivePlans"

	query := `SELECT id, name, price_idr, duration_days, allow_addons, is_active
			  FROM subscription_plans
			  WHERE is_active = TRUE
			  ORDER BY price_idr ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Plan
	for rows.Next() {
		var plan models.Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.PriceIDR, &plan.DurationDays,
			&plan.AllowAddons, &plan.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
