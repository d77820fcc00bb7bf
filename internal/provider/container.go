package provider

import (
	"github.com/wuyi-mall/internal/authz"
	"github.com/wuyi-mall/internal/cache"
	"github.com/wuyi-mall/internal/config"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/queue"
	"github.com/wuyi-mall/internal/repository"
	"github.com/wuyi-mall/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo           repository.UserRepository
	ProductRepo        repository.ProductRepository
	CartRepo           repository.CartRepository
	OrderRepo          repository.OrderRepository
	CouponRepo         repository.CouponRepository
	UserCouponRepo     repository.UserCouponRepository
	ActivityRepo       repository.DiscountActivityRepository
	PaymentRecordRepo  repository.PaymentRecordRepository
	PaymentChannelRepo repository.PaymentChannelRepository
	CommentRepo        repository.CommentRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	CaptchaService   *service.CaptchaService
	InventoryService *service.InventoryService
	ProductService   *service.ProductService
	CartService      *service.CartService
	MarketingService *service.MarketingService
	OrderService     *service.OrderService
	PayService       *service.PayService
	CommentService   *service.CommentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.UserCouponRepo = repository.NewUserCouponRepository(db)
	c.ActivityRepo = repository.NewDiscountActivityRepository(db)
	c.PaymentRecordRepo = repository.NewPaymentRecordRepository(db)
	c.PaymentChannelRepo = repository.NewPaymentChannelRepository(db)
	c.CommentRepo = repository.NewCommentRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo, c.CaptchaService)
	c.InventoryService = service.NewInventoryService(c.ProductRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.InventoryService)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.MarketingService = service.NewMarketingService(c.CouponRepo, c.UserCouponRepo, c.ActivityRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CartRepo, c.InventoryService, c.MarketingService, c.QueueClient, c.Config.Order.PaymentExpireMinutes)
	c.PayService = service.NewPayService(c.OrderRepo, c.PaymentRecordRepo, c.PaymentChannelRepo, c.OrderService, c.MarketingService, c.Config.Order.PaymentExpireMinutes)
	c.CommentService = service.NewCommentService(c.CommentRepo, c.OrderRepo, c.ProductRepo, c.UserRepo)
}
