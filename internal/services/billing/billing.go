// Package billing выставляет счета платёжного шлюза на покупку подписок,
// апгрейды и дополнения. Цены и ограничения покупки считаются здесь,
// до обращения к шлюзу: оплаченный счёт обязан быть выполнимым.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/instatools/billing/internal/lib/extid"
	"github.com/instatools/billing/internal/lib/pricing"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
	"github.com/instatools/billing/internal/paymentprovider"
)

// Ошибки ограничений покупки, транслируемые HTTP-слоем в ответы клиенту.
var (
	// ErrNoActiveSubscription — апгрейд или дополнение без активной подписки.
	ErrNoActiveSubscription = errors.New("no active subscription")
	// ErrDowngradeLocked — переход на план дешевле текущего запрещён.
	ErrDowngradeLocked = errors.New("downgrade is not allowed")
	// ErrCooldownActive — повторная покупка того же плана слишком рано.
	ErrCooldownActive = errors.New("current subscription is still active")
	// ErrAddonsNotAllowed — тариф не поддерживает дополнения.
	ErrAddonsNotAllowed = errors.New("plan does not allow addons")
)

// Запас оставшегося срока, при котором повторная покупка того же плана
// блокируется: час для пробного тарифа, трое суток для остальных.
const (
	trialRepurchaseWindow   = time.Hour
	regularRepurchaseWindow = 72 * time.Hour
)

// Repository определяет методы хранилища для выставления счетов.
type Repository interface {
	GetActivePlan(ctx context.Context, planID int64) (*models.Plan, error)
	GetPlan(ctx context.Context, planID int64) (*models.Plan, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
}

// GatewayClient создает счета во внешнем платёжном шлюзе.
type GatewayClient interface {
	CreateInvoice(ctx context.Context, req paymentprovider.CreateInvoiceRequest) (*paymentprovider.CreateInvoiceResponse, error)
}

// InvoiceResult — результат выставления счета, возвращаемый клиенту.
type InvoiceResult struct {
	ExternalID string `json:"external_id"`
	AmountIDR  int64  `json:"amount_idr"`
	PaymentURL string `json:"payment_url"`
}

// Service реализует выставление счетов с проверкой ограничений.
type Service struct {
	repo    Repository
	gateway GatewayClient
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, gateway GatewayClient, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		log:     log,
		now:     time.Now,
	}
}

// CreatePlanInvoice выставляет счёт на покупку плана.
// Покупка плана дешевле текущего активного запрещена, повторная покупка
// того же плана доступна только ближе к концу срока действия.
func (s *Service) CreatePlanInvoice(ctx context.Context, userID, planID int64) (*InvoiceResult, error) {
	const op = "services.billing.CreatePlanInvoice"

	plan, err := s.repo.GetActivePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current != nil {
		if err := s.checkRepurchase(ctx, current, plan); err != nil {
			return nil, err
		}
	}

	externalID := extid.EncodeNewSubscription(userID, planID, s.now())
	return s.issue(ctx, op, userID, externalID, plan.PriceIDR,
		fmt.Sprintf("Подписка %s", plan.Name))
}

// checkRepurchase применяет ограничения покупки при действующей подписке.
func (s *Service) checkRepurchase(ctx context.Context, current *models.Subscription, target *models.Plan) error {
	const op = "services.billing.checkRepurchase"

	currentPlan, err := s.repo.GetPlan(ctx, current.PlanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if target.PriceIDR < currentPlan.PriceIDR {
		return ErrDowngradeLocked
	}

	if target.ID == currentPlan.ID {
		window := regularRepurchaseWindow
		if currentPlan.Name == "prematur" {
			window = trialRepurchaseWindow
		}
		if current.EndDate.Sub(s.now()) > window {
			return ErrCooldownActive
		}
	}
	return nil
}

// CreateUpgradeInvoice выставляет счёт на апгрейд до более дорогого плана.
// Сумма — цена нового плана минус неиспользованный остаток текущего.
func (s *Service) CreateUpgradeInvoice(ctx context.Context, userID, newPlanID int64) (*InvoiceResult, error) {
	const op = "services.billing.CreateUpgradeInvoice"

	current, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return nil, ErrNoActiveSubscription
	}

	currentPlan, err := s.repo.GetPlan(ctx, current.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	newPlan, err := s.repo.GetActivePlan(ctx, newPlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if newPlan.PriceIDR <= currentPlan.PriceIDR {
		return nil, ErrDowngradeLocked
	}

	amount := pricing.CalculateUpgradeCost(
		currentPlan.PriceIDR, currentPlan.DurationDays,
		s.remainingDays(current), newPlan.PriceIDR)

	externalID := extid.EncodeUpgrade(userID, newPlanID, s.now())
	return s.issue(ctx, op, userID, externalID, amount,
		fmt.Sprintf("Апгрейд %s → %s", currentPlan.Name, newPlan.Name))
}

// CreateAddonInvoice выставляет счёт на покупку дополнения к активной подписке.
func (s *Service) CreateAddonInvoice(ctx context.Context, userID int64, addonType, subType string, quantity int) (*InvoiceResult, error) {
	const op = "services.billing.CreateAddonInvoice"

	current, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return nil, ErrNoActiveSubscription
	}

	plan, err := s.repo.GetPlan(ctx, current.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.AllowAddons {
		return nil, ErrAddonsNotAllowed
	}

	amount, err := pricing.CalculateAddonPrice(plan.Name, addonType, subType, quantity, s.remainingDays(current))
	if err != nil {
		if errors.Is(err, pricing.ErrNotAllowed) {
			return nil, ErrAddonsNotAllowed
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	externalID := extid.EncodeAddon(userID, addonType, quantity, s.now())
	return s.issue(ctx, op, userID, externalID, amount,
		fmt.Sprintf("Дополнение %s x%d", addonType, quantity))
}

// remainingDays возвращает остаток срока подписки в сутках, не меньше нуля.
func (s *Service) remainingDays(sub *models.Subscription) float64 {
	days := sub.EndDate.Sub(s.now()).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// issue создает счёт в шлюзе и собирает результат для клиента.
func (s *Service) issue(ctx context.Context, op string, userID int64, externalID string, amount int64, description string) (*InvoiceResult, error) {
	resp, err := s.gateway.CreateInvoice(ctx, paymentprovider.CreateInvoiceRequest{
		ExternalID:  externalID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		s.log.Error("failed to create invoice",
			slog.String("op", op), sl.UserID(userID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("invoice created",
		slog.String("op", op),
		sl.UserID(userID),
		slog.String("external_id", externalID),
		slog.Int64("amount_idr", amount))

	return &InvoiceResult{
		ExternalID: externalID,
		AmountIDR:  amount,
		PaymentURL: resp.InvoiceURL,
	}, nil
}
