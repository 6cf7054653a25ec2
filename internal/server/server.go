package server

import (
	"context"
	"net/http"

	"brimasouk/internal/auth"
	"brimasouk/internal/config"
	"brimasouk/internal/handler"
	"brimasouk/internal/middleware"
	"brimasouk/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Services are the domain services the HTTP layer is built over.
type Services struct {
	Users      service.UserService
	Products   service.ProductService
	Carts      service.CartService
	Orders     service.OrderService
	PromoCodes service.PromoCodeService
	Events     service.EventService
	Admin      service.AdminService
}

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	policy *auth.Policy
	authn  middleware.Authenticator

	userHandler    *handler.UserHandler
	productHandler *handler.ProductHandler
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	promoHandler   *handler.PromoCodeHandler
	eventHandler   *handler.EventHandler
	adminHandler   *handler.AdminHandler
}

func NewServer(cfg *config.Config, l *log.Logger, policy *auth.Policy, svc Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(l, cfg.Environment.IsProduction())

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(l))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.Metrics())

	s := &Server{
		echo:           e,
		cfg:            cfg,
		policy:         policy,
		authn:          svc.Users,
		userHandler:    handler.NewUserHandler(svc.Users),
		productHandler: handler.NewProductHandler(svc.Products, svc.Orders),
		cartHandler:    handler.NewCartHandler(svc.Carts),
		orderHandler:   handler.NewOrderHandler(svc.Orders),
		promoHandler:   handler.NewPromoCodeHandler(svc.PromoCodes),
		eventHandler:   handler.NewEventHandler(svc.Events),
		adminHandler:   handler.NewAdminHandler(svc.Admin),
	}

	s.setupRoutes()
	return s
}

func (s *Server) can(resource, action string) echo.MiddlewareFunc {
	return middleware.Require(s.policy, resource, action)
}

func (s *Server) authRateLimiter() echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(s.cfg.RateLimit.AuthPerSecond)),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, try again later")
		},
	})
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(s.authn)
	optionalAuth := middleware.OptionalAuth(s.authn)

	// -------- auth --------
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.userHandler.Signup, s.authRateLimiter())
	authGroup.POST("/signin", s.userHandler.Signin, s.authRateLimiter())
	authGroup.GET("/me", s.userHandler.GetProfile, requireAuth, s.can(auth.ResourceAccount, auth.ActionRead))
	authGroup.PUT("/change-password", s.userHandler.ChangePassword, requireAuth, s.can(auth.ResourceAccount, auth.ActionWrite))

	// -------- users --------
	users := api.Group("/users")
	users.GET("/artisans", s.userHandler.ListArtisans)
	users.GET("/artisans/:id", s.userHandler.GetArtisan)
	users.GET("/profile", s.userHandler.GetProfile, requireAuth, s.can(auth.ResourceAccount, auth.ActionRead))
	users.PUT("/profile", s.userHandler.UpdateProfile, requireAuth, s.can(auth.ResourceAccount, auth.ActionWrite))
	users.POST("/apply-artisan", s.userHandler.ApplyArtisan, requireAuth, s.can(auth.ResourceAccount, auth.ActionWrite))

	// -------- collaborators --------
	collaborators := api.Group("/collaborators")
	collaborators.GET("", s.userHandler.ListCollaborators)
	collaborators.POST("/apply", s.userHandler.ApplyCollaborator, requireAuth, s.can(auth.ResourceAccount, auth.ActionWrite))

	// -------- products --------
	products := api.Group("/products")
	products.GET("", s.productHandler.List)
	products.GET("/sections/:section", s.productHandler.Section)
	products.GET("/category/:category", s.productHandler.ListByCategory)
	products.GET("/mine", s.productHandler.ListMine, requireAuth, s.can(auth.ResourceProducts, auth.ActionWrite))
	products.GET("/dashboard/artisan", s.productHandler.ArtisanDashboard, requireAuth, s.can(auth.ResourceProducts, auth.ActionManage))
	products.POST("", s.productHandler.Create, requireAuth, s.can(auth.ResourceProducts, auth.ActionWrite))
	products.GET("/:id", s.productHandler.Get, optionalAuth)
	products.PUT("/:id", s.productHandler.Update, requireAuth, s.can(auth.ResourceProducts, auth.ActionWrite))
	products.DELETE("/:id", s.productHandler.Delete, requireAuth, s.can(auth.ResourceProducts, auth.ActionWrite))
	products.PUT("/:id/stock", s.productHandler.AdjustStock, requireAuth, s.can(auth.ResourceProducts, auth.ActionManage))
	products.PUT("/:id/approve", s.productHandler.Approve, requireAuth, s.can(auth.ResourceAdmin, auth.ActionManage))
	products.PUT("/:id/reject", s.productHandler.Reject, requireAuth, s.can(auth.ResourceAdmin, auth.ActionManage))
	products.PUT("/:id/promotion", s.productHandler.SetPromotion, requireAuth, s.can(auth.ResourceAdmin, auth.ActionManage))

	// -------- cart --------
	cart := api.Group("/cart", requireAuth)
	cart.GET("", s.cartHandler.Get, s.can(auth.ResourceCart, auth.ActionRead))
	cart.POST("/items", s.cartHandler.AddItem, s.can(auth.ResourceCart, auth.ActionWrite))
	cart.PUT("/items/:productId", s.cartHandler.UpdateItem, s.can(auth.ResourceCart, auth.ActionWrite))
	cart.DELETE("/items/:productId", s.cartHandler.RemoveItem, s.can(auth.ResourceCart, auth.ActionWrite))
	cart.DELETE("", s.cartHandler.Clear, s.can(auth.ResourceCart, auth.ActionWrite))

	// -------- orders --------
	orders := api.Group("/orders", requireAuth)
	orders.POST("", s.orderHandler.Create, s.can(auth.ResourceOrders, auth.ActionWrite))
	orders.GET("", s.orderHandler.ListMine, s.can(auth.ResourceOrders, auth.ActionRead))
	orders.GET("/artisan", s.orderHandler.ListArtisan, s.can(auth.ResourceOrders, auth.ActionManage))
	orders.GET("/:id", s.orderHandler.Get, s.can(auth.ResourceOrders, auth.ActionRead))
	orders.PUT("/:id/cancel", s.orderHandler.Cancel, s.can(auth.ResourceOrders, auth.ActionWrite))
	orders.GET("/:id/payment", s.orderHandler.VerifyPayment, s.can(auth.ResourceOrders, auth.ActionRead))
	orders.POST("/:id/checkout", s.orderHandler.Checkout, s.can(auth.ResourceOrders, auth.ActionWrite))
	orders.PUT("/:id/status", s.orderHandler.UpdateStatus, s.can(auth.ResourceOrders, auth.ActionManage))

	// -------- promo codes --------
	promos := api.Group("/promocodes")
	promos.POST("/validate", s.promoHandler.Validate)
	promos.POST("/apply", s.promoHandler.Apply, requireAuth, s.can(auth.ResourcePromoCodes, auth.ActionRead))
	promos.POST("", s.promoHandler.Create, requireAuth, s.can(auth.ResourcePromoCodes, auth.ActionManage))
	promos.GET("", s.promoHandler.List, requireAuth, s.can(auth.ResourcePromoCodes, auth.ActionManage))

	// -------- events --------
	events := api.Group("/events")
	events.GET("", s.eventHandler.List)
	events.GET("/reservations", s.eventHandler.ListMyReservations, requireAuth, s.can(auth.ResourceEvents, auth.ActionRead))
	events.PUT("/reservations/:id/cancel", s.eventHandler.CancelReservation, requireAuth, s.can(auth.ResourceEvents, auth.ActionBook))
	events.GET("/artisan/events", s.eventHandler.ListArtisanEvents, requireAuth, s.can(auth.ResourceEvents, auth.ActionManage))
	events.POST("", s.eventHandler.Create, requireAuth, s.can(auth.ResourceEvents, auth.ActionWrite))
	events.GET("/:id", s.eventHandler.Get, optionalAuth)
	events.PUT("/:id", s.eventHandler.Update, requireAuth, s.can(auth.ResourceEvents, auth.ActionWrite))
	events.POST("/:id/book", s.eventHandler.Book, requireAuth, s.can(auth.ResourceEvents, auth.ActionBook))
	events.GET("/:id/reservations", s.eventHandler.ListEventReservations, requireAuth, s.can(auth.ResourceEvents, auth.ActionManage))

	// -------- admin --------
	admin := api.Group("/admin")
	admin.POST("/auth/login", s.userHandler.AdminLogin, s.authRateLimiter())

	review := admin.Group("", requireAuth, s.can(auth.ResourceAdmin, auth.ActionManage))
	review.GET("/dashboard", s.adminHandler.Dashboard)
	review.GET("/dashboard/enhanced", s.adminHandler.EnhancedDashboard)
	review.GET("/users", s.adminHandler.ListUsers)
	review.GET("/users/:id", s.adminHandler.GetUser)
	review.GET("/artisans/pending", s.adminHandler.ListPendingArtisans)
	review.PUT("/artisans/:id/approve", s.adminHandler.ApproveArtisan)
	review.PUT("/artisans/:id/reject", s.adminHandler.RejectArtisan)
	review.GET("/products/pending", s.productHandler.ListPending)
	review.PUT("/products/:id/approve", s.productHandler.Approve)
	review.PUT("/products/:id/reject", s.productHandler.Reject)
	review.GET("/collaborators/pending", s.adminHandler.ListPendingCollaborators)
	review.PUT("/collaborators/:id/approve", s.adminHandler.ApproveCollaborator)
	review.PUT("/collaborators/:id/reject", s.adminHandler.RejectCollaborator)
	review.GET("/events/pending", s.adminHandler.ListPendingEvents)
	review.PUT("/events/:id/approve", s.adminHandler.ApproveEvent)
	review.PUT("/events/:id/reject", s.adminHandler.RejectEvent)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
