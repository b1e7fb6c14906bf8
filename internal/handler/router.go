package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gearbook/internal/handler/api"
	"gearbook/internal/handler/middleware"
	"gearbook/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	equipmentHandler *api.EquipmentHandler,
	bookingHandler *api.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, userHandler, equipmentHandler, bookingHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	equipmentHandler *api.EquipmentHandler,
	bookingHandler *api.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
				{Method: http.MethodPost, Path: "/refresh", Handler: authHandler.Refresh},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: authHandler.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: authHandler.Me},
			})
		}

		users := apiGroup.Group("/users")
		{
			addRoutes(users, []route{
				{Method: http.MethodPost, Path: "/register", Handler: userHandler.Register},
				// Called by the Telegram bot, which authenticates out of band.
				{Method: http.MethodPost, Path: "/telegram/consume", Handler: userHandler.ConsumeTelegramLink},
			})

			usersAuth := users.Group("")
			usersAuth.Use(authMiddleware.RequireAuth())
			addRoutes(usersAuth, []route{
				{Method: http.MethodGet, Path: "", Handler: userHandler.ListUsers, Mw: []gin.HandlerFunc{authMiddleware.RequireAdmin()}},
				{Method: http.MethodGet, Path: "/:id", Handler: userHandler.GetUser},
				{Method: http.MethodGet, Path: "/:id/bookings", Handler: bookingHandler.ListUserBookings},
				{Method: http.MethodPost, Path: "/:id/ronin", Handler: userHandler.GrantRonin, Mw: []gin.HandlerFunc{authMiddleware.RequireAdmin()}},
				{Method: http.MethodPost, Path: "/me/telegram/link", Handler: userHandler.GenerateTelegramLink},
				{Method: http.MethodDelete, Path: "/me/telegram", Handler: userHandler.UnlinkTelegram},
			})
		}

		equip := apiGroup.Group("/equipment")
		equip.Use(authMiddleware.RequireAuth())
		{
			addRoutes(equip, []route{
				{Method: http.MethodGet, Path: "/models", Handler: equipmentHandler.ListModels},
				{Method: http.MethodGet, Path: "/models/:id", Handler: equipmentHandler.GetModel},
				{Method: http.MethodGet, Path: "/models/:id/items", Handler: equipmentHandler.ListItems},
				{Method: http.MethodGet, Path: "/models/:id/availability", Handler: equipmentHandler.GetAvailability},
				{Method: http.MethodGet, Path: "/items/:id", Handler: equipmentHandler.GetItem},
			})

			admin := []gin.HandlerFunc{authMiddleware.RequireAdmin()}
			addRoutes(equip, []route{
				{Method: http.MethodPost, Path: "/models", Handler: equipmentHandler.CreateModel, Mw: admin},
				{Method: http.MethodPut, Path: "/models/:id", Handler: equipmentHandler.UpdateModel, Mw: admin},
				{Method: http.MethodDelete, Path: "/models/:id", Handler: equipmentHandler.DeleteModel, Mw: admin},
				{Method: http.MethodPost, Path: "/models/:id/items", Handler: equipmentHandler.CreateItem, Mw: admin},
				{Method: http.MethodDelete, Path: "/items/:id", Handler: equipmentHandler.DeleteItem, Mw: admin},
				{Method: http.MethodPatch, Path: "/items/:id/availability", Handler: equipmentHandler.SetItemAvailability, Mw: admin},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateBooking},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.ListMyBookings},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookingHandler.CancelBooking},
				{Method: http.MethodPatch, Path: "/items/:id/returned", Handler: bookingHandler.SetItemReturned},
			})

			admin := []gin.HandlerFunc{authMiddleware.RequireAdmin()}
			addRoutes(bookings, []route{
				{Method: http.MethodGet, Path: "/all", Handler: bookingHandler.ListAllBookings, Mw: admin},
				{Method: http.MethodPost, Path: "/:id/approve", Handler: bookingHandler.ApproveBooking, Mw: admin},
				{Method: http.MethodPost, Path: "/:id/reject", Handler: bookingHandler.RejectBooking, Mw: admin},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: bookingHandler.CompleteBooking, Mw: admin},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
