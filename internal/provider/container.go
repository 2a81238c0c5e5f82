package provider

import (
	"errors"
	"time"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/authz"
	"github.com/lumenshop/storefront/internal/cache"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/messaging"
	"github.com/lumenshop/storefront/internal/queue"
	"github.com/lumenshop/storefront/internal/repository"
	"github.com/lumenshop/storefront/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config        *config.Config
	QueueClient   *queue.Client
	EventProducer *messaging.Producer

	// Repositories
	DocumentStore  repository.DocumentStore
	ProfileRepo    repository.ProfileRepository
	OrderRepo      repository.OrderRepository
	ProductRepo    repository.ProductRepository
	CredentialRepo repository.CredentialRepository

	// Services
	AuthzService      *authz.Service
	AuthProvider      auth.Provider
	EmailService      *service.EmailService
	CaptchaService    *service.CaptchaService
	CatalogService    *service.CatalogService
	IdentityService   *service.IdentityService
	Managers          *service.ManagerFactory
	OrderAdminService *service.OrderAdminService
	DashboardService  *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is not initialized")
	}

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时为空实现
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	if cfg.Events.Enabled {
		c.EventProducer = messaging.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
		if c.EventProducer == nil {
			logger.Warnw("provider_event_producer_skipped", "reason", "brokers or topic missing")
		}
	}

	c.initRepositories(db)
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.DocumentStore = repository.NewDocumentStore(db)
	c.ProfileRepo = repository.NewProfileRepository(c.DocumentStore)
	c.OrderRepo = repository.NewOrderRepository(c.DocumentStore)
	c.ProductRepo = repository.NewProductRepository(c.DocumentStore)
	c.CredentialRepo = repository.NewCredentialRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}
	c.AuthzService = authzService

	cfg := c.Config
	timeout := cfg.Order.RemoteTimeout()

	c.EmailService = service.NewEmailService(&cfg.Email, cfg.App.StoreName)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, timeout)

	resetNotifier := service.NewPasswordResetNotifier(c.QueueClient, c.EmailService)
	c.AuthProvider = auth.NewLocalProvider(cfg.JWT, cfg.Security.PasswordPolicy, c.CredentialRepo, resetNotifier)

	sessions := service.NewSessionRegistry(c.ProfileRepo, cfg.Session.IdleTTL(), timeout)
	c.IdentityService = service.NewIdentityService(c.AuthProvider, c.ProfileRepo, sessions, cfg.Security.PasswordPolicy, timeout)

	notifier := c.orderNotifier(timeout)
	c.Managers = service.NewManagerFactory(c.ProfileRepo, c.OrderRepo, service.NewPricingRules(cfg.Order), timeout, notifier)
	c.OrderAdminService = service.NewOrderAdminService(c.OrderRepo, cfg.Order.AdminStatusPolicy, timeout, notifier)
	c.DashboardService = service.NewDashboardService(c.OrderRepo, c.ProfileRepo, c.ProductRepo, timeout)
	return nil
}

// orderNotifier 组合邮件与事件通知
func (c *Container) orderNotifier(timeout time.Duration) service.OrderNotifier {
	notifiers := service.OrderNotifiers{service.NewOrderEmailNotifier(c.QueueClient)}
	if c.EventProducer != nil {
		notifiers = append(notifiers, service.NewOrderEventNotifier(c.EventProducer, timeout))
	}
	return notifiers
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if c.EventProducer != nil {
		if err := c.EventProducer.Close(); err != nil {
			logger.Warnw("provider_close_event_producer_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
