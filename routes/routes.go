package routes

import (
	"pizza-ordering-api/handlers"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/metrics"
	"pizza-ordering-api/middleware"
	"pizza-ordering-api/session"

	"github.com/gin-gonic/gin"
)

// NewEngine builds the gin engine with the middleware stack and every route.
func NewEngine(h *handlers.Handler, sessions *session.Manager, m *metrics.Metrics, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(log),
		middleware.Logging(log, m),
		middleware.Recovery(log),
		middleware.CORS(),
	)
	SetupRoutes(r, h, sessions, m, log)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, sessions *session.Manager, m *metrics.Metrics, log *logger.Logger) {
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ── Public routes ──────────────────────────────────────────────
	api := r.Group("/api")
	api.Use(middleware.Sessions(sessions, log))
	{
		api.GET("/menu", h.GetMenu)
		api.POST("/price", h.PriceQuote)
		api.GET("/state-machine", h.GetStateMachineInfo)

		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddCartItem)
		api.PATCH("/cart/items/:id", h.UpdateCartItem)
		api.DELETE("/cart/items/:id", h.RemoveCartItem)

		api.POST("/checkout", h.Checkout)
		api.POST("/payment", h.PaymentStub)

		api.GET("/orders/:id", h.TrackOrder)
		api.GET("/orders/:id/details", h.GetOrderDetails)
		api.POST("/orders/:id/payment", h.PayOrder)
		api.PATCH("/orders/:id/status", middleware.AdminRequired(log), h.UpdateOrderStatus)

		api.POST("/admin/login", h.AdminLogin)
		api.POST("/admin/logout", h.AdminLogout)
		api.GET("/admin/session", h.AdminSession)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(log))
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/orders/:id/history", h.AdminOrderHistory)

		admin.GET("/catalog", h.AdminGetCatalog)
		admin.POST("/catalog/:category", h.AdminUpsertComponent)
		admin.DELETE("/catalog/:category/:id", h.AdminDeleteComponent)

		admin.GET("/menu", h.AdminListPresets)
		admin.POST("/menu", h.AdminCreatePreset)
		admin.GET("/menu/:id", h.AdminGetPreset)
		admin.PUT("/menu/:id", h.AdminUpdatePreset)
		admin.DELETE("/menu/:id", h.AdminDeletePreset)

		admin.GET("/report", h.AdminReportCSV)
		admin.GET("/reports/summary", h.AdminReportSummary)
	}
}
