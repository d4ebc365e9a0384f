package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/admin"
	"github.com/dailyserve/lifehub/internal/auth"
	"github.com/dailyserve/lifehub/internal/config"
	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/logging"
	"github.com/dailyserve/lifehub/internal/marketplace"
	appmw "github.com/dailyserve/lifehub/internal/middleware"
	"github.com/dailyserve/lifehub/internal/upload"
	"github.com/dailyserve/lifehub/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.Init(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	db.Init(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Validator = appmw.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())
	e.Use(appmw.Prometheus)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Client.Ping(c.Request().Context(), nil); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Uploaded service images
	e.Static("/uploads", cfg.UploadDir)

	api := e.Group("/api/v1")

	// Auth routes with per-IP rate limiting to protect register/login from abuse
	authGroup := api.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)

	// Authenticated auth/profile routes
	me := api.Group("/auth")
	me.Use(appmw.JWTMiddleware)
	me.GET("/me", auth.Me)
	me.PUT("/update-profile", user.UpdateProfile)
	me.PUT("/change-password", auth.ChangePassword)

	api.GET("/users/:id/profile", user.GetPublicProfile)

	// Categories: public reads, admin writes
	api.GET("/categories", marketplace.GetCategories)
	api.GET("/categories/:id", marketplace.GetCategory)
	api.POST("/categories", marketplace.CreateCategory, appmw.JWTMiddleware, appmw.AdminGuard)
	api.PUT("/categories/:id", marketplace.UpdateCategory, appmw.JWTMiddleware, appmw.AdminGuard)
	api.DELETE("/categories/:id", marketplace.DeleteCategory, appmw.JWTMiddleware, appmw.AdminGuard)

	// Services: public discovery, provider-managed listings
	api.GET("/services", marketplace.GetServices)
	api.GET("/services/:id", marketplace.GetService)
	api.POST("/services", marketplace.CreateService, appmw.JWTMiddleware, appmw.ProviderGuard)
	api.PUT("/services/:id", marketplace.UpdateService, appmw.JWTMiddleware, appmw.ProviderGuard)
	api.DELETE("/services/:id", marketplace.DeleteService, appmw.JWTMiddleware, appmw.ProviderGuard)
	api.POST("/services/:id/review", marketplace.AddReview, appmw.JWTMiddleware)

	// Orders
	orders := api.Group("/orders")
	orders.Use(appmw.JWTMiddleware)
	orders.POST("", marketplace.CreateOrder)
	orders.GET("/user", marketplace.GetUserOrders)
	orders.GET("/provider", marketplace.GetProviderOrders, appmw.ProviderGuard)
	orders.GET("/:id", marketplace.GetOrder)
	orders.PUT("/:id/status", marketplace.UpdateOrderStatus, appmw.ProviderGuard)
	orders.PUT("/:id/cancel", marketplace.CancelOrder)
	orders.POST("/:id/pay", marketplace.PayOrder)

	// Upload
	uploads := &upload.Handler{Dir: cfg.UploadDir}
	api.POST("/upload", uploads.Upload, appmw.JWTMiddleware)

	// Admin console backend
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWTMiddleware)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.PUT("/users/:id/role", admin.UpdateUserRole)
	adminGroup.GET("/orders", admin.ListOrders)
	adminGroup.GET("/services", admin.ListServices)

	// Start and wait for shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()
	logger.Info("api server listening", zap.String("port", cfg.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := db.Close(ctx); err != nil {
		logger.Error("db disconnect failed", zap.Error(err))
	}
}
