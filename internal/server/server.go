package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/brrowapp/brrow-backend/internal/dispatch"
	"github.com/brrowapp/brrow-backend/internal/handler"
	"github.com/brrowapp/brrow-backend/internal/logging"
	appmw "github.com/brrowapp/brrow-backend/internal/middleware"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Auth           *appmw.AuthMiddleware
	Queue          dispatch.Queue
	Log            *zap.Logger
	Gatherer       prometheus.Gatherer
	AdminAPIKey    string
	VAPIDPublicKey string
	SHA            string
	BuildTime      string
}

type Server struct {
	e *echo.Echo
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(d.Log))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DevUserHeader, appmw.AdminKeyHeader},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil || u.Scheme != "https" {
				return false, nil
			}
			host := u.Hostname()
			return host == "brrowapp.com" || strings.HasSuffix(host, ".brrowapp.com"), nil
		},
	}))

	convRepo := repository.NewConversationRepository(d.DB)
	notifRepo := repository.NewNotificationRepository(d.DB)
	deviceRepo := repository.NewDeviceRepository(d.DB)
	deliveryRepo := repository.NewDeliveryRepository(d.DB)

	deviceSvc := service.NewDeviceService(deviceRepo)
	convHandler := handler.NewConversationHandler(service.NewConversationService(convRepo, notifRepo, d.Queue, d.Log))
	notifHandler := handler.NewNotificationHandler(service.NewNotificationService(notifRepo))
	userHandler := handler.NewUserHandler(service.NewUserService(repository.NewUserRepository(d.DB)), deviceSvc)
	deviceHandler := handler.NewDeviceHandler(deviceSvc, d.VAPIDPublicKey)
	prefHandler := handler.NewPreferenceHandler(service.NewPreferenceService(repository.NewPreferenceRepository(d.DB)))
	deliveryHandler := handler.NewDeliveryHandler(service.NewDeliveryService(convRepo, deliveryRepo))

	e.GET("/healthz", func(c echo.Context) error {
		status := http.StatusOK
		dbStatus := "ok"
		if err := ping(c.Request().Context(), d.DB); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = err.Error()
		}
		return c.JSON(status, map[string]string{
			"ok":         "true",
			"db":         dbStatus,
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/push/vapid-public-key", deviceHandler.VAPIDKey)

	authed := api.Group("", d.Auth.RequireAuth)
	authed.PUT("/users/me", userHandler.UpdateMe)
	authed.PUT("/users/me/fcm-token", userHandler.UpdateFCMToken)
	authed.GET("/users/me/notification-preferences", prefHandler.Get)
	authed.PUT("/users/me/notification-preferences", prefHandler.Put)
	authed.POST("/devices", deviceHandler.Register)
	authed.GET("/devices", deviceHandler.List)
	authed.DELETE("/devices/:id", deviceHandler.Deactivate)
	authed.POST("/conversations", convHandler.Create)
	authed.GET("/conversations", convHandler.List)
	authed.DELETE("/conversations/:id", convHandler.Delete)
	authed.GET("/conversations/:id/messages", convHandler.ListMessages)
	authed.POST("/conversations/:id/messages", convHandler.CreateMessage)
	authed.POST("/conversations/:id/mute", convHandler.Mute)
	authed.DELETE("/conversations/:id/mute", convHandler.Unmute)
	authed.DELETE("/conversations/:id/participants/:uid", convHandler.RemoveParticipant)
	authed.POST("/conversations/:id/read", convHandler.MarkRead)
	authed.GET("/notifications", notifHandler.List)
	authed.GET("/notifications/unread-count", notifHandler.UnreadCount)
	authed.POST("/notifications/read", notifHandler.MarkAllRead)
	authed.GET("/messages/:id/deliveries", deliveryHandler.ForMessage)

	admin := api.Group("/admin", appmw.AdminKey(d.AdminAPIKey))
	admin.GET("/deliveries", deliveryHandler.Query)
	admin.GET("/delivery-health", deliveryHandler.Health)

	return &Server{e: e}
}

func ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return repository.ErrDBNotReady
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
