package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

func testConfig() *config.Config {
	return &config.Config{
		Currencies: []string{"USD", "KRW", "EUR"},
		Providers: config.ProvidersConfig{
			Default: "sandbox",
			Sandbox: config.SandboxConfig{Enabled: true},
		},
	}
}

// memIntentRepository is an in-memory IntentRepository that stores copies.
type memIntentRepository struct {
	mu      sync.Mutex
	intents map[string]*entity.PaymentIntent
	saves   int
	saveErr error
	// failSave, when set, can refuse individual writes
	failSave func(*entity.PaymentIntent) error
}

func newMemIntentRepository() *memIntentRepository {
	return &memIntentRepository{intents: map[string]*entity.PaymentIntent{}}
}

func (r *memIntentRepository) Save(ctx context.Context, intent *entity.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.failSave != nil {
		if err := r.failSave(intent); err != nil {
			return err
		}
	}
	r.saves++
	r.intents[intent.ID] = intent.Clone()
	return nil
}

func (r *memIntentRepository) GetByID(ctx context.Context, id string) (*entity.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[id].Clone(), nil
}

func (r *memIntentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.PaymentIntent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*entity.PaymentIntent
	for _, intent := range r.intents {
		if intent.AccountID == accountID {
			all = append(all, intent.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.PaymentIntent{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memIntentRepository) put(intent *entity.PaymentIntent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents[intent.ID] = intent.Clone()
}

// memSubscriptionRepository is an in-memory SubscriptionRepository.
type memSubscriptionRepository struct {
	mu      sync.Mutex
	subs    map[string]*entity.Subscription
	saves   int
	getErr  error
	listErr error
}

func newMemSubscriptionRepository() *memSubscriptionRepository {
	return &memSubscriptionRepository{subs: map[string]*entity.Subscription{}}
}

func subKey(accountID, id string) string { return accountID + "/" + id }

func (r *memSubscriptionRepository) Save(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	c := *sub
	r.subs[subKey(sub.AccountID, sub.ID)] = &c
	return nil
}

func (r *memSubscriptionRepository) GetByID(ctx context.Context, accountID, id string) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	sub, ok := r.subs[subKey(accountID, id)]
	if !ok {
		return nil, nil
	}
	c := *sub
	return &c, nil
}

func (r *memSubscriptionRepository) ListByAccount(ctx context.Context, accountID string) ([]*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entity.Subscription
	for key, sub := range r.subs {
		if strings.HasPrefix(key, accountID+"/") {
			c := *sub
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSubscriptionRepository) ListAccountIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, sub := range r.subs {
		if !seen[sub.AccountID] {
			seen[sub.AccountID] = true
			ids = append(ids, sub.AccountID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memSubscriptionRepository) put(sub *entity.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *sub
	r.subs[subKey(sub.AccountID, sub.ID)] = &c
}

// memSettingsRepository is an in-memory SettingsRepository.
type memSettingsRepository struct {
	values map[string][]byte
	getErr error
}

func (r *memSettingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.values[key], nil
}

func (r *memSettingsRepository) Put(ctx context.Context, key string, value []byte) error {
	r.values[key] = value
	return nil
}

// MockEntitlementService is a mock implementation of EntitlementService
type MockEntitlementService struct {
	mock.Mock
}

func (m *MockEntitlementService) GrantEntitlement(ctx context.Context, accountID string, interval entity.Interval) error {
	args := m.Called(ctx, accountID, interval)
	return args.Error(0)
}

func (m *MockEntitlementService) RevokeEntitlement(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// MockProfileFetcher is a mock implementation of ProfileFetcher
type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) FetchProfile(ctx context.Context, accountID string) (*entity.RemoteProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RemoteProfile), args.Error(1)
}

// MockProvider is a mock PaymentProvider owning ids with the "mock_" prefix
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Create(ctx context.Context, req *provider.CreateIntentRequest) (*entity.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentIntent), args.Error(1)
}

func (m *MockProvider) Advance(ctx context.Context, req *provider.AdvanceIntentRequest) (*entity.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentIntent), args.Error(1)
}

func (m *MockProvider) Owns(intentID string) bool { return strings.HasPrefix(intentID, "mock_") }
func (m *MockProvider) GetProviderName() string   { return "mock" }

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) IntentUpdated(ctx context.Context, intent *entity.PaymentIntent) {
	m.Called(ctx, intent)
}

func (m *MockEventPublisher) SubscriptionUpdated(ctx context.Context, sub *entity.Subscription) {
	m.Called(ctx, sub)
}
