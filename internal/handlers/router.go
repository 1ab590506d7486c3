package handlers

import (
	"gestly/internal/caching"
	"gestly/internal/middleware"
	"gestly/internal/models"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers groups every resource handler mounted by NewRouter.
type Handlers struct {
	Health       *HealthHandlers
	Auth         *AuthHandlers
	Profiles     *ProfileHandlers
	APIKeys      *APIKeyHandlers
	Customers    *CustomerHandlers
	Services     *ServiceHandlers
	Appointments *AppointmentHandlers
	Loyalty      *LoyaltyHandlers
	Reviews      *ReviewHandlers
	Webhooks     *WebhookHandlers
	Finance      *FinanceHandlers
	Reports      *ReportHandlers
}

type RouterConfig struct {
	Logger      *zap.Logger
	Auth        middleware.AuthConfig
	RateLimiter *middleware.RateLimiter
	Usage       caching.CacheService
	Metrics     *middleware.HTTPMetrics
}

// NewRouter builds the echo instance with global middleware, health and
// metrics endpoints, and the tenant API under /api/v1.
func NewRouter(h Handlers, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(cfg.Logger)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(echomw.Recover())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
		e.GET("/metrics", cfg.Metrics.Handler())
	}
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/health", h.Health.LivenessCheck)
	e.GET("/health/ready", h.Health.ReadinessCheck)

	versions := middleware.NewVersionMiddleware()
	e.GET("/api/versions", versions.Versions)
	v1 := versions.VersionRoute(e, "v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	api := v1.Group("")
	api.Use(
		middleware.Authenticate(cfg.Auth),
		cfg.RateLimiter.Middleware(),
		middleware.CountUsage(cfg.Usage, cfg.Logger),
	)
	manage := middleware.RequireRole(models.RoleOwner, models.RoleAdmin)

	api.GET("/auth/me", h.Auth.Me, middleware.SessionOnly())

	api.GET("/profiles", h.Profiles.ListProfiles)
	api.POST("/profiles", h.Profiles.CreateProfile, manage)
	api.GET("/profiles/:id", h.Profiles.GetProfile)
	api.PUT("/profiles/:id", h.Profiles.UpdateProfile, manage)

	keys := api.Group("/api-keys", middleware.SessionOnly(), manage)
	keys.GET("", h.APIKeys.ListAPIKeys)
	keys.POST("", h.APIKeys.CreateAPIKey)
	keys.DELETE("/:id", h.APIKeys.RevokeAPIKey)

	api.GET("/customers", h.Customers.ListCustomers)
	api.POST("/customers", h.Customers.CreateCustomer)
	api.GET("/customers/:id", h.Customers.GetCustomer)
	api.PUT("/customers/:id", h.Customers.UpdateCustomer)
	api.DELETE("/customers/:id", h.Customers.DeleteCustomer, manage)
	api.GET("/customers/:id/loyalty", h.Loyalty.Balance)
	api.POST("/customers/:id/loyalty/redeem", h.Loyalty.Redeem)

	api.GET("/services", h.Services.ListServices)
	api.POST("/services", h.Services.CreateService, manage)
	api.GET("/services/:id", h.Services.GetService)
	api.PUT("/services/:id", h.Services.UpdateService, manage)
	api.DELETE("/services/:id", h.Services.DeleteService, manage)

	api.GET("/appointments", h.Appointments.ListAppointments)
	api.POST("/appointments", h.Appointments.CreateAppointment)
	api.GET("/appointments/:id", h.Appointments.GetAppointment)
	api.PUT("/appointments/:id", h.Appointments.UpdateAppointment)
	api.PATCH("/appointments/:id/status", h.Appointments.ChangeStatus)
	api.DELETE("/appointments/:id", h.Appointments.DeleteAppointment)

	api.GET("/loyalty/program", h.Loyalty.GetProgram)
	api.POST("/loyalty/program", h.Loyalty.CreateProgram, manage)
	api.PUT("/loyalty/program/:id", h.Loyalty.UpdateProgram, manage)
	api.GET("/loyalty/rewards", h.Loyalty.ListRewards)
	api.POST("/loyalty/rewards", h.Loyalty.CreateReward, manage)
	api.PUT("/loyalty/rewards/:id", h.Loyalty.UpdateReward, manage)

	api.GET("/reviews", h.Reviews.ListReviews)
	api.POST("/reviews", h.Reviews.CreateReview)
	api.GET("/reviews/summary", h.Reviews.Summary)
	api.GET("/reviews/:id", h.Reviews.GetReview)
	api.DELETE("/reviews/:id", h.Reviews.DeleteReview, manage)

	hooks := api.Group("/webhooks", manage)
	hooks.GET("", h.Webhooks.ListWebhooks)
	hooks.POST("", h.Webhooks.CreateWebhook)
	hooks.GET("/:id", h.Webhooks.GetWebhook)
	hooks.PUT("/:id", h.Webhooks.UpdateWebhook)
	hooks.DELETE("/:id", h.Webhooks.DeleteWebhook)
	hooks.GET("/:id/deliveries", h.Webhooks.ListDeliveries)
	hooks.POST("/:id/test", h.Webhooks.TestWebhook)

	api.GET("/commissions", h.Finance.ListCommissions)
	api.GET("/commissions/summary", h.Finance.CommissionSummary)
	api.POST("/commissions/:id/pay", h.Finance.MarkCommissionPaid, manage)

	finance := api.Group("/transactions", manage)
	finance.GET("", h.Finance.ListTransactions)
	finance.POST("", h.Finance.CreateTransaction)
	finance.GET("/summary", h.Finance.TransactionSummary)

	api.GET("/metrics/dashboard", h.Reports.Dashboard)
	api.POST("/reports/financial", h.Reports.ExportFinancial, manage)

	return e
}
