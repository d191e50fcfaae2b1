package billing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/instatools/billing/internal/models"
	"github.com/instatools/billing/internal/paymentprovider"
	"github.com/instatools/billing/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetActivePlan(ctx context.Context, planID int64) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockRepository) GetPlan(ctx context.Context, planID int64) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockRepository) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateInvoice(ctx context.Context, req paymentprovider.CreateInvoiceRequest) (*paymentprovider.CreateInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CreateInvoiceResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *MockRepository, gw *MockGateway, now time.Time) *Service {
	s := New(repo, gw, newNoopLogger())
	s.now = func() time.Time { return now }
	return s
}

var (
	basicPlan   = &models.Plan{ID: 3, Name: "basic", PriceIDR: 100000, DurationDays: 30, AllowAddons: true, IsActive: true}
	proPlan     = &models.Plan{ID: 4, Name: "pro", PriceIDR: 300000, DurationDays: 30, AllowAddons: true, IsActive: true}
	starterPlan = &models.Plan{ID: 2, Name: "starter", PriceIDR: 60000, DurationDays: 30, IsActive: true}
	trialPlan   = &models.Plan{ID: 1, Name: "prematur", PriceIDR: 50000, DurationDays: 3, IsActive: true}
)

func gatewayResponse(url string) *paymentprovider.CreateInvoiceResponse {
	return &paymentprovider.CreateInvoiceResponse{
		ID:         "inv-1",
		Status:     "PENDING",
		InvoiceURL: url,
	}
}

func TestService_CreatePlanInvoice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		userID         int64
		planID         int64
		setupMocks     func(*MockRepository, *MockGateway)
		expectedErr    error
		expectedAmount int64
	}{
		{
			name:   "first purchase without active subscription",
			userID: 7,
			planID: 3,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(nil, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateInvoiceRequest) bool {
					return req.Amount == 100000 && req.ExternalID != ""
				})).Return(gatewayResponse("https://pay.example/1"), nil).Once()
			},
			expectedAmount: 100000,
		},
		{
			name:   "cheaper plan than current is rejected",
			userID: 7,
			planID: 2,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(2)).Return(starterPlan, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 3, EndDate: now.Add(10 * 24 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
			},
			expectedErr: ErrDowngradeLocked,
		},
		{
			name:   "same plan too early is rejected",
			userID: 7,
			planID: 3,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 3, EndDate: now.Add(10 * 24 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
			},
			expectedErr: ErrCooldownActive,
		},
		{
			name:   "same plan close to expiry is allowed",
			userID: 7,
			planID: 3,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 3, EndDate: now.Add(48 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.Anything).Return(gatewayResponse("https://pay.example/2"), nil).Once()
			},
			expectedAmount: 100000,
		},
		{
			name:   "trial repurchase window is one hour",
			userID: 7,
			planID: 1,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(1)).Return(trialPlan, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 1, EndDate: now.Add(2 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(1)).Return(trialPlan, nil).Once()
			},
			expectedErr: ErrCooldownActive,
		},
		{
			name:   "unknown plan",
			userID: 7,
			planID: 99,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActivePlan", mock.Anything, int64(99)).Return(nil, repository.ErrPlanNotFound).Once()
			},
			expectedErr: repository.ErrPlanNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newTestService(repo, gw, now)

			tt.setupMocks(repo, gw)

			result, err := service.CreatePlanInvoice(context.Background(), tt.userID, tt.planID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedAmount, result.AmountIDR)
				assert.NotEmpty(t, result.PaymentURL)
				assert.NotEmpty(t, result.ExternalID)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestService_CreateUpgradeInvoice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		newPlanID      int64
		setupMocks     func(*MockRepository, *MockGateway)
		expectedErr    error
		expectedAmount int64
	}{
		{
			name:      "upgrade credits unused remainder",
			newPlanID: 4,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 3, EndDate: now.Add(15 * 24 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				r.On("GetActivePlan", mock.Anything, int64(4)).Return(proPlan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateInvoiceRequest) bool {
					// 300000 - (100000/30)*15 = 250000
					return req.Amount == 250000
				})).Return(gatewayResponse("https://pay.example/3"), nil).Once()
			},
			expectedAmount: 250000,
		},
		{
			name:      "no active subscription",
			newPlanID: 4,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(nil, nil).Once()
			},
			expectedErr: ErrNoActiveSubscription,
		},
		{
			name:      "downgrade is rejected",
			newPlanID: 2,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(&models.Subscription{
					UserID: 7, PlanID: 3, EndDate: now.Add(15 * 24 * time.Hour), Status: models.SubscriptionStatusActive,
				}, nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				r.On("GetActivePlan", mock.Anything, int64(2)).Return(starterPlan, nil).Once()
			},
			expectedErr: ErrDowngradeLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newTestService(repo, gw, now)

			tt.setupMocks(repo, gw)

			result, err := service.CreateUpgradeInvoice(context.Background(), 7, tt.newPlanID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedAmount, result.AmountIDR)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestService_CreateAddonInvoice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	activeSub := func(planID int64, remaining time.Duration) *models.Subscription {
		return &models.Subscription{
			UserID: 7, PlanID: planID, EndDate: now.Add(remaining), Status: models.SubscriptionStatusActive,
		}
	}

	tests := []struct {
		name           string
		addonType      string
		subType        string
		quantity       int
		setupMocks     func(*MockRepository, *MockGateway)
		expectedErr    error
		expectedAmount int64
	}{
		{
			name:      "proxy addon on basic plan",
			addonType: "proxy",
			subType:   "shared",
			quantity:  10,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(activeSub(3, 15*24*time.Hour), nil).Once()
				r.On("GetPlan", mock.Anything, int64(3)).Return(basicPlan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateInvoiceRequest) bool {
					return req.Amount == 75000
				})).Return(gatewayResponse("https://pay.example/4"), nil).Once()
			},
			expectedAmount: 75000,
		},
		{
			name:      "cross posting prorated on pro plan",
			addonType: "cross_posting",
			quantity:  1,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(activeSub(4, 15*24*time.Hour), nil).Once()
				r.On("GetPlan", mock.Anything, int64(4)).Return(proPlan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateInvoiceRequest) bool {
					return req.Amount == 100000
				})).Return(gatewayResponse("https://pay.example/5"), nil).Once()
			},
			expectedAmount: 100000,
		},
		{
			name:      "no active subscription",
			addonType: "proxy",
			quantity:  5,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(nil, nil).Once()
			},
			expectedErr: ErrNoActiveSubscription,
		},
		{
			name:      "plan without addons support",
			addonType: "proxy",
			quantity:  5,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetActiveSubscription", mock.Anything, int64(7)).Return(activeSub(2, 10*24*time.Hour), nil).Once()
				r.On("GetPlan", mock.Anything, int64(2)).Return(starterPlan, nil).Once()
			},
			expectedErr: ErrAddonsNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newTestService(repo, gw, now)

			tt.setupMocks(repo, gw)

			result, err := service.CreateAddonInvoice(context.Background(), 7, tt.addonType, tt.subType, tt.quantity)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedAmount, result.AmountIDR)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}
