package cli

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/cache"
	"pizzeria_back_end/internal/config"
	"pizzeria_back_end/internal/database"
	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/handlers/admin"
	"pizzeria_back_end/internal/handlers/order"
	"pizzeria_back_end/internal/handlers/payment"
	"pizzeria_back_end/internal/handlers/product"
	"pizzeria_back_end/internal/handlers/user"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/repository"
	"pizzeria_back_end/internal/routes"
	"pizzeria_back_end/internal/services"
	"pizzeria_back_end/internal/utils"
)

// app is the wired object graph shared by serve and worker.
type app struct {
	cfg    config.Config
	conns  *database.Connections
	broker *events.Broker
	feed   *events.RedisFeed
	bus    *events.Bus
	audit  *utils.AuditLogger

	identity *services.IdentityService
	accounts *services.AccountService
	address  *services.AddressService
	catalog  *services.CatalogService
	orders   *services.OrderService
	payments *services.PaymentService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	conns, err := database.ConnectAll(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, conns: conns}
	store := repository.NewGormStore(conns.DB)
	redisStore := cache.NewRedisStore(conns.Redis)
	mailer := utils.NewMailer(cfg.SMTP, cfg.PublicURL)
	tokens := auth.NewTokenManager(auth.Options{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	a.feed = events.NewRedisFeed(conns.Redis)
	a.bus = events.NewBus().
		Register("redis", a.feed).
		Register("mail", events.NewStatusNotifier(store.Users(), mailer))
	if cfg.RabbitMQ.URL != "" {
		broker, err := events.DialBroker(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to RabbitMQ, continuing without broker events")
		} else {
			a.broker = broker
			a.bus.Register("rabbitmq", broker)
		}
	}
	a.audit = utils.NewAuditLogger(conns.Scylla)

	var index services.MenuIndex
	if conns.Elastic != nil {
		index = services.NewElasticMenuIndex(conns.Elastic, cfg.Elastic.Index)
	}
	var images services.ImageStore
	if conns.MinIO != nil {
		images = services.NewMinIOImageStore(conns.MinIO, cfg.MinIO.Bucket)
	}

	a.identity = services.NewIdentityService(store, tokens, redisStore)
	a.accounts = services.NewAccountService(store, a.identity, tokens, redisStore, mailer)
	a.address = services.NewAddressService(store)
	a.catalog = services.NewCatalogService(store, cache.NewItemCache(conns.Redis), index, images)
	a.orders = services.NewOrderService(store, a.bus)
	a.payments = services.NewPaymentService(store)
	return a, nil
}

func (a *app) router() *gin.Engine {
	if a.cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Identity:    a.identity,
		Limiter:     middleware.NewRateLimiter(cache.NewRedisStore(a.conns.Redis)),
		Auditor:     a.audit,
		CorsOrigins: a.cfg.Server.CorsOrigins,
		Auth:        user.NewAuthHandler(a.accounts),
		Addresses:   user.NewAddressHandler(a.address),
		Catalog:     product.NewCatalogHandler(a.catalog),
		Orders:      order.NewOrderHandler(a.orders, a.feed),
		Payments:    payment.NewPaymentHandler(a.payments),
		Audit:       admin.NewAuditHandler(a.audit),
	})
	return r
}

func (a *app) Close() {
	a.audit.Wait()
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}
	a.conns.Close()
}
