package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/instatools/billing/internal/models"
)

// Срок действия дополнения при отсутствии активной подписки —
// защитный запасной вариант, а не биллинговая гарантия.
const addonFallbackDays = 30

// ProvisionAddon атомарно применяет подтверждённую оплату дополнения:
// помечает внешний идентификатор обработанным, привязывает срок действия
// к концу активной подписки пользователя (или now+30d, если её нет)
// и вставляет запись дополнения. FulfilledAt остаётся NULL до ручной
// выдачи ресурса административным процессом.
func (s *Storage) ProvisionAddon(ctx context.Context, externalID string, userID int64, addonType string, quantity int, pricePaid int64) error {
	const op = "storage.ProvisionAddon"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := markProcessed(ctx, tx, externalID); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	endDate := now.AddDate(0, 0, addonFallbackDays)

	var subEndDate time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT end_date FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY end_date DESC
		LIMIT 1`, userID, models.SubscriptionStatusActive).Scan(&subEndDate)
	switch {
	case err == nil:
		endDate = subEndDate
	case errors.Is(err, sql.ErrNoRows):
		// Активной подписки нет, остаёмся на запасном сроке.
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscription_addons
			(user_id, addon_type, sub_type, quantity, price_paid, start_date, end_date, is_active)
		VALUES ($1, $2, NULL, $3, $4, $5, $6, TRUE)`,
		userID, addonType, quantity, pricePaid, now, endDate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAddons возвращает дополнения пользователя, новые первыми.
// Поле fulfilled_at видно дашборду как статус выдачи ресурса.
func (s *Storage) ListAddons(ctx context.Context, userID int64) ([]*models.Addon, error) {
	const op = "storage.ListAddons"

	query := `SELECT id, user_id, addon_type, sub_type, quantity, price_paid,
				start_date, end_date, is_active, fulfilled_at
			  FROM subscription_addons
			  WHERE user_id = $1
			  ORDER BY start_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Addon
	for rows.Next() {
		var addon models.Addon
		if err := rows.Scan(&addon.ID, &addon.UserID, &addon.AddonType, &addon.SubType,
			&addon.Quantity, &addon.PricePaid, &addon.StartDate, &addon.EndDate,
			&addon.IsActive, &addon.FulfilledAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &addon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
