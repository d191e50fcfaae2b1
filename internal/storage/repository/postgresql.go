// Package repository реализует хранилище биллинга на основе PostgreSQL:
// каталог планов, подписки, дополнения и журнал обработанных транзакций.
// Активация подписки и выдача дополнения выполняются в одной транзакции
// с дедупликацией по внешнему идентификатору счёта.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrPlanNotFound возвращается, когда план отсутствует в каталоге
// или выключен администратором.
var ErrPlanNotFound = errors.New("plan not found or inactive")

// ErrAlreadyProcessed возвращается при повторной доставке уведомления
// по уже применённому внешнему идентификатору: вся операция — no-op.
var ErrAlreadyProcessed = errors.New("external id already processed")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с биллинговыми сущностями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscription_plans'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscription_plans missing or query error: %w", err)
	}
	return nil
}

// markProcessed вставляет внешний идентификатор в журнал обработанных
// транзакций внутри переданной транзакции. Нулевое число вставленных
// строк означает повторную доставку.
func markProcessed(ctx context.Context, tx *sql.Tx, externalID string) error {
	const op = "storage.markProcessed"

	result, err := tx.ExecContext(ctx, `
		INSERT INTO processed_transactions (external_id)
		VALUES ($1)
		ON CONFLICT (external_id) DO NOTHING`, externalID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// lockUser берёт транзакционную advisory-блокировку по пользователю,
// сериализуя конкурентные активации для одного user_id.
func lockUser(ctx context.Context, tx *sql.Tx, userID int64) error {
	const op = "storage.lockUser"

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
