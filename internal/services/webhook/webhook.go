// Package webhook содержит бизнес-логику обработки асинхронных платёжных
// уведомлений шлюза: фильтр статуса, декодирование внешнего идентификатора,
// диспетчеризацию в активацию подписки или выдачу дополнения, дедупликацию
// повторных доставок и публикацию записей аудита.
package webhook

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/instatools/billing/internal/cache"
	"github.com/instatools/billing/internal/lib/extid"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
	"github.com/instatools/billing/internal/storage/repository"
)

// Статус уведомления, единственный приводящий к выдаче.
const statusPaid = "PAID"

// Итоги обработки уведомления, попадающие в аудит и метрики.
const (
	OutcomeActivated        = "activated"
	OutcomeUpgraded         = "upgraded"
	OutcomeAddonProvisioned = "addon_provisioned"
	OutcomeIgnoredStatus    = "ignored_status"
	OutcomeUnparsable       = "unparsable"
	OutcomePlanNotFound     = "plan_not_found"
	OutcomeDuplicate        = "duplicate"
	OutcomeStorageError     = "storage_error"
)

// Repository определяет методы хранилища, нужные обработчику уведомлений.
type Repository interface {
	// GetActivePlan возвращает доступный план каталога.
	GetActivePlan(ctx context.Context, planID int64) (*models.Plan, error)
	// ActivateSubscription атомарно активирует подписку по оплате.
	ActivateSubscription(ctx context.Context, externalID string, userID, planID int64, durationDays int) error
	// ProvisionAddon атомарно выдаёт дополнение по оплате.
	ProvisionAddon(ctx context.Context, externalID string, userID int64, addonType string, quantity int, pricePaid int64) error
}

// AuditPublisher отправляет запись аудита во внешний журнал.
type AuditPublisher interface {
	Publish(record models.AuditRecord) error
}

// Cache описывает инвалидацию read-side кеша затронутого пользователя.
type Cache interface {
	Invalidate(key string) error
}

// Notification — разобранное тело webhook-вызова шлюза.
// Аутентификация вызова — забота HTTP-слоя, сюда приходят
// только уведомления с проверенным общим секретом.
type Notification struct {
	ExternalID string
	Status     string
	Amount     float64
}

// Service реализует машину состояний обработки уведомлений.
type Service struct {
	repo  Repository
	audit AuditPublisher
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, audit AuditPublisher, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		audit: audit,
		cache: cache,
		log:   log,
	}
}

// ProcessNotification применяет уведомление к состоянию биллинга.
// Любой исход, кроме сбоя хранилища, считается успешной обработкой:
// шлюзу нельзя давать повод для бесконечных повторов на наших ошибках
// данных. Ошибка возвращается только при отказе записи.
func (s *Service) ProcessNotification(ctx context.Context, n Notification) error {
	const op = "services.webhook.ProcessNotification"
	log := s.log.With(slog.String("op", op), slog.String("external_id", n.ExternalID))

	amount := int64(math.Round(n.Amount))

	if n.Status != statusPaid {
		log.Info("notification ignored", slog.String("status", n.Status))
		s.record(n.ExternalID, 0, "none", OutcomeIgnoredStatus, amount)
		return nil
	}

	intent, err := extid.Decode(n.ExternalID)
	if err != nil {
		// Кривой идентификатор — наша проблема качества данных, не шлюза.
		// Подтверждаем приём, но след остаётся в логе и аудите.
		log.Warn("unparsable external id", sl.Err(err))
		s.record(n.ExternalID, 0, "none", OutcomeUnparsable, amount)
		return nil
	}

	switch intent.Kind {
	case extid.KindNewSubscription, extid.KindUpgrade:
		action := "activate"
		outcome := OutcomeActivated
		if intent.Kind == extid.KindUpgrade {
			action = "upgrade"
			outcome = OutcomeUpgraded
		}
		return s.activate(ctx, log, n.ExternalID, intent, action, outcome, amount)

	case extid.KindAddon:
		return s.provisionAddon(ctx, log, n.ExternalID, intent, amount)

	default:
		log.Warn("unknown intent kind")
		s.record(n.ExternalID, intent.UserID, "none", OutcomeUnparsable, amount)
		return nil
	}
}

func (s *Service) activate(ctx context.Context, log *slog.Logger, externalID string, intent *extid.Intent, action, outcome string, amount int64) error {
	plan, err := s.repo.GetActivePlan(ctx, intent.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			log.Error("plan not found for paid invoice",
				sl.UserID(intent.UserID), slog.Int64("plan_id", intent.PlanID))
			s.record(externalID, intent.UserID, action, OutcomePlanNotFound, amount)
			return nil
		}
		s.record(externalID, intent.UserID, action, OutcomeStorageError, amount)
		return err
	}

	err = s.repo.ActivateSubscription(ctx, externalID, intent.UserID, plan.ID, plan.DurationDays)
	if errors.Is(err, repository.ErrAlreadyProcessed) {
		log.Info("duplicate delivery, no-op", sl.UserID(intent.UserID))
		s.record(externalID, intent.UserID, action, OutcomeDuplicate, amount)
		return nil
	}
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err), sl.UserID(intent.UserID))
		s.record(externalID, intent.UserID, action, OutcomeStorageError, amount)
		return err
	}

	log.Info("subscription activated",
		sl.UserID(intent.UserID),
		slog.Int64("plan_id", plan.ID),
		slog.String("plan_name", plan.Name))
	s.invalidateUser(intent.UserID)
	s.record(externalID, intent.UserID, action, outcome, amount)
	return nil
}

func (s *Service) provisionAddon(ctx context.Context, log *slog.Logger, externalID string, intent *extid.Intent, amount int64) error {
	err := s.repo.ProvisionAddon(ctx, externalID, intent.UserID, intent.AddonType, intent.Quantity, amount)
	if errors.Is(err, repository.ErrAlreadyProcessed) {
		log.Info("duplicate delivery, no-op", sl.UserID(intent.UserID))
		s.record(externalID, intent.UserID, "provision_addon", OutcomeDuplicate, amount)
		return nil
	}
	if err != nil {
		log.Error("failed to provision addon", sl.Err(err), sl.UserID(intent.UserID))
		s.record(externalID, intent.UserID, "provision_addon", OutcomeStorageError, amount)
		return err
	}

	log.Info("addon provisioned",
		sl.UserID(intent.UserID),
		slog.String("addon_type", intent.AddonType),
		slog.Int("quantity", intent.Quantity))
	s.invalidateUser(intent.UserID)
	s.record(externalID, intent.UserID, "provision_addon", OutcomeAddonProvisioned, amount)
	return nil
}

// record публикует запись аудита и инкрементирует метрику итога.
// Недоступность журнала не должна ронять обработку платежа.
func (s *Service) record(externalID string, userID int64, action, outcome string, amount int64) {
	webhookOutcomes.WithLabelValues(outcome).Inc()

	rec := models.AuditRecord{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		UserID:     userID,
		Action:     action,
		Outcome:    outcome,
		AmountIDR:  amount,
		OccurredAt: time.Now(),
	}
	if err := s.audit.Publish(rec); err != nil {
		s.log.Warn("failed to publish audit record", sl.Err(err), slog.String("outcome", outcome))
	}
}

func (s *Service) invalidateUser(userID int64) {
	for _, key := range []string{
		cache.KeyCurrentSubscription(userID),
		cache.KeyUserAddons(userID),
	} {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
		}
	}
}
