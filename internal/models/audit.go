package models

import "time"

// AuditRecord — структурированная запись аудита обработки платёжного
// уведомления. Публикуется во внешний журнал (очередь billing.audit)
// на каждой ветке обработки webhook, включая проигнорированные.
type AuditRecord struct {
	ID         string    `json:"id"`          // UUID записи
	ExternalID string    `json:"external_id"` // Внешний идентификатор счёта
	UserID     int64     `json:"user_id"`     // 0, если идентификатор не распарсился
	Action     string    `json:"action"`      // activate, upgrade, provision_addon, none
	Outcome    string    `json:"outcome"`     // Итог обработки, см. services/webhook
	AmountIDR  int64     `json:"amount_idr"`  // Сумма из уведомления
	OccurredAt time.Time `json:"occurred_at"`
}
