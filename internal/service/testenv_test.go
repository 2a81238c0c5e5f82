package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

type serviceTestEnv struct {
	db       *gorm.DB
	store    *repository.GormDocumentStore
	profiles *flakyProfiles
	orders   repository.OrderRepository
	products repository.ProductRepository
	provider *auth.LocalProvider
	sessions *SessionRegistry
	identity *IdentityService
	factory  *ManagerFactory
	notifier *recordingNotifier
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存 SQLite 并发写需串行
	sqlDB.SetMaxOpenConns(1)
	store := repository.NewDocumentStore(db)
	profiles := &flakyProfiles{ProfileRepository: repository.NewProfileRepository(store)}
	orders := repository.NewOrderRepository(store)
	policy := config.PasswordPolicyConfig{MinLength: 6}
	provider := auth.NewLocalProvider(
		config.JWTConfig{SecretKey: "service-test-secret", ExpireHours: 1},
		policy,
		repository.NewCredentialRepository(db),
		nil,
	)
	timeout := 10 * time.Second
	sessions := NewSessionRegistry(profiles, 30*time.Minute, timeout)
	notifier := &recordingNotifier{}
	return &serviceTestEnv{
		db:       db,
		store:    store,
		profiles: profiles,
		orders:   orders,
		products: repository.NewProductRepository(store),
		provider: provider,
		sessions: sessions,
		identity: NewIdentityService(provider, profiles, sessions, policy, timeout),
		factory:  NewManagerFactory(profiles, orders, DefaultPricingRules(), timeout, notifier),
		notifier: notifier,
	}
}

// register 注册并返回会话
func (e *serviceTestEnv) register(t *testing.T, email string) *Session {
	t.Helper()
	result, err := e.identity.Register(context.Background(), email, "secret123", ProfileSeed{DisplayName: "Tester"})
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return result.Session
}

// flakyProfiles 可按需让资料写入失败或读取阻塞
type flakyProfiles struct {
	repository.ProfileRepository
	failUpdates atomic.Bool
	failAppends atomic.Bool
	blockReads  atomic.Bool
	updates     atomic.Int64
}

var errStoreDown = errors.New("store unreachable")

func (p *flakyProfiles) Update(ctx context.Context, uid string, patch models.JSON) (*models.Profile, error) {
	p.updates.Add(1)
	if p.failUpdates.Load() {
		return nil, errStoreDown
	}
	return p.ProfileRepository.Update(ctx, uid, patch)
}

func (p *flakyProfiles) AppendOrder(ctx context.Context, uid, orderID string) error {
	if p.failAppends.Load() {
		return errStoreDown
	}
	return p.ProfileRepository.AppendOrder(ctx, uid, orderID)
}

func (p *flakyProfiles) Get(ctx context.Context, uid string) (*models.Profile, error) {
	if p.blockReads.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.ProfileRepository.Get(ctx, uid)
}

// stalledOrders 创建订单时一直等到上下文结束
type stalledOrders struct {
	repository.OrderRepository
}

func (o stalledOrders) Create(ctx context.Context, _ *models.Order) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// signOutFailingProvider 注销时返回不可用
type signOutFailingProvider struct {
	*auth.LocalProvider
}

func (p signOutFailingProvider) SignOut(context.Context, string) error {
	return auth.ErrProviderUnavailable
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changes []string
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.ID)
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order *models.Order, previous string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, previous+"->"+order.Status)
}

func (n *recordingNotifier) changeLog() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.changes...)
}

func testProduct(id, price string) models.ProductSnapshot {
	return models.ProductSnapshot{
		ProductID: id,
		Name:      "Product " + id,
		Brand:     "Lumen",
		Price:     models.MustMoney(price),
		Image:     "https://img.example/" + id + ".png",
	}
}

func testAddress() models.Address {
	return models.Address{
		FullName:     "Ada Lovelace",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		State:        "LDN",
		ZipCode:      "10001",
		Country:      "GB",
		Email:        "ada@example.com",
	}
}

func testPayment() models.PaymentDescriptor {
	return models.PaymentDescriptor{Method: constants.PaymentMethodCard, CardBrand: constants.CardBrandVisa, Last4: "4242"}
}
