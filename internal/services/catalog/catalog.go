// Package catalog отдает read-side биллинга: список тарифов,
// текущую подписку пользователя и выданные ему дополнения.
// Горячие выборки кешируются в Redis.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/instatools/billing/internal/cache"
	"github.com/instatools/billing/internal/lib/pricing"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
)

// Сроки жизни кеша: каталог меняется редко, состояние пользователя — по оплате.
const (
	plansCacheTTL = time.Hour
	userCacheTTL  = 5 * time.Minute
)

// Repository определяет методы хранилища для read-side выборок.
type Repository interface {
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	GetPlan(ctx context.Context, planID int64) (*models.Plan, error)
	ListAddons(ctx context.Context, userID int64) ([]*models.Addon, error)
}

// Cache описывает кеш для витрины каталога.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service реализует витрину каталога и состояния пользователя.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListPlans возвращает доступные к покупке планы, от дешёвых к дорогим.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.catalog.ListPlans"

	key := cache.KeyActivePlans()
	var plans []*models.Plan
	found, err := s.cache.Get(key, &plans)
	if err != nil {
		s.log.Warn("failed to read plans cache", sl.Err(err))
	}
	if found {
		return plans, nil
	}

	plans, err = s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(key, plans, plansCacheTTL); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// CurrentSubscription возвращает активную подписку пользователя с именем
// плана, либо nil при её отсутствии.
func (s *Service) CurrentSubscription(ctx context.Context, userID int64) (*models.CurrentSubscription, error) {
	const op = "services.catalog.CurrentSubscription"

	key := cache.KeyCurrentSubscription(userID)
	var cached models.CurrentSubscription
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription cache", sl.UserID(userID), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	sub, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, nil
	}

	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.CurrentSubscription{
		Subscription: *sub,
		PlanName:     plan.Name,
	}
	if err := s.cache.Set(key, result, userCacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", sl.UserID(userID), sl.Err(err))
	}
	return result, nil
}

// ListAddons возвращает дополнения пользователя, новые первыми.
func (s *Service) ListAddons(ctx context.Context, userID int64) ([]*models.Addon, error) {
	const op = "services.catalog.ListAddons"

	key := cache.KeyUserAddons(userID)
	var addons []*models.Addon
	found, err := s.cache.Get(key, &addons)
	if err != nil {
		s.log.Warn("failed to read addons cache", sl.UserID(userID), sl.Err(err))
	}
	if found {
		return addons, nil
	}

	addons, err = s.repo.ListAddons(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(key, addons, userCacheTTL); err != nil {
		s.log.Warn("failed to cache addons", sl.UserID(userID), sl.Err(err))
	}
	return addons, nil
}

// ProxyBundles возвращает фиксированные пакеты прокси.
func (s *Service) ProxyBundles() []pricing.ProxyBundle {
	return pricing.ProxyBundles
}
