package models

import "time"

// Типы дополнений, известные каталогу.
const (
	AddonTypeProxy        = "proxy"
	AddonTypeQuota        = "quota"
	AddonTypeCrossPosting = "cross_posting"
	AddonTypeCrossThreads = "cross_threads"
)

// Addon представляет оплаченное дополнение к подписке пользователя.
// Поле FulfilledAt заполняется отдельным административным процессом выдачи
// физического ресурса (например, выделения proxy IP) и отличает
// «оплачено» от «выдано». SubType может быть NULL: формат внешнего
// идентификатора не переносит подтип через платёжный шлюз.
type Addon struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	AddonType   string     `json:"addon_type"` // proxy, quota, cross_posting, cross_threads
	SubType     *string    `json:"sub_type"`   // shared, private, dedicated, proxy, account
	Quantity    int        `json:"quantity"`
	PricePaid   int64      `json:"price_paid"` // Фактически оплаченная сумма в рупиях
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"` // Привязана к сроку действия активной подписки
	IsActive    bool       `json:"is_active"`
	FulfilledAt *time.Time `json:"fulfilled_at"` // nil, пока ресурс не выдан вручную
}
