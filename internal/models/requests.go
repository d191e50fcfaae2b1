package models

// DummyPlanInvoice используется для приёма запроса на покупку плана
// из JSON-запроса до валидации.
type DummyPlanInvoice struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"` // Идентификатор плана из каталога
}

// DummyUpgradeInvoice используется для приёма запроса на апгрейд плана.
type DummyUpgradeInvoice struct {
	NewPlanID int64 `json:"new_plan_id" validate:"required,gt=0"` // Идентификатор нового плана
}

// DummyAddonInvoice используется для приёма запроса на покупку дополнения.
// SubType опционален: его требуют только proxy и quota.
type DummyAddonInvoice struct {
	AddonType string `json:"addon_type" validate:"required,oneof=proxy quota cross_posting cross_threads"`
	SubType   string `json:"sub_type,omitempty" validate:"omitempty,oneof=shared private dedicated proxy account"`
	Quantity  int    `json:"qty" validate:"required,gte=1"`
}
