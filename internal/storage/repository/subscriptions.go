package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/instatools/billing/internal/models"
)

// ActivateSubscription атомарно применяет подтверждённую оплату плана:
// в одной транзакции помечает внешний идентификатор обработанным,
// переводит прежнюю активную подписку пользователя в expired и вставляет
// новую активную запись. Повторная доставка того же externalID —
// ErrAlreadyProcessed без каких-либо изменений.
func (s *Storage) ActivateSubscription(ctx context.Context, externalID string, userID, planID int64, durationDays int) error {
	const op = "storage.ActivateSubscription"

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

	_, err = tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1
		WHERE user_id = $2 AND status = $3`,
		models.SubscriptionStatusExpired, userID, models.SubscriptionStatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, planID, now, now.AddDate(0, 0, durationDays), models.SubscriptionStatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetActiveSubscription возвращает активную подписку пользователя
// или nil, если её нет.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"

	query := `SELECT id, user_id, plan_id, start_date, end_date, status
			  FROM subscriptions
			  WHERE user_id = $1 AND status = $2
			  ORDER BY end_date DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userID, models.SubscriptionStatusActive)

	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartDate, &sub.EndDate, &sub.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ListSubscriptions возвращает историю подписок пользователя, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"

	query := `SELECT id, user_id, plan_id, start_date, end_date, status
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY start_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartDate, &sub.EndDate, &sub.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
