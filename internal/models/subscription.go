package models

import "time"

// Статусы подписки. Инвариант хранилища: у пользователя в любой момент
// не более одной записи со статусом active.
const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// Subscription представляет оплаченную подписку пользователя на тарифный план.
// Создаётся только при подтверждённой оплате; переходит в expired,
// когда её вытесняет новая активация.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"` // active или expired
}

// CurrentSubscription — представление активной подписки для дашборда,
// дополненное названием тарифа из каталога.
type CurrentSubscription struct {
	Subscription
	PlanName string `json:"plan_name"`
}
