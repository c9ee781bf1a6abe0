package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/callcenter-console/backend/internal/config"
	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/http/handlers"
	"github.com/callcenter-console/backend/internal/http/middleware"
	"github.com/callcenter-console/backend/internal/service"

	_ "github.com/callcenter-console/backend/docs"
)

func Router(cfg config.Config, store db.Backend, catalog *service.CatalogCache, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}

	auth := &service.AuthService{Store: store, TTL: cfg.SessionTTL, Logger: logger}
	h := &handlers.Handler{
		Store:     store,
		Customers: &service.CustomerResolver{Store: store, Logger: logger},
		Tickets: &service.TicketReconciler{
			Store:    store,
			Catalog:  catalog,
			Location: loc,
			Logger:   logger,
		},
		Catalog:        catalog,
		Auth:           auth,
		MissCalls:      &service.MissCallService{Store: store, BatchSize: cfg.ImportBatchSize, Logger: logger},
		Reports:        &service.ReportService{Store: store},
		Validator:      handlers.NewValidator(),
		Logger:         logger,
		Location:       loc,
		PresenceWindow: cfg.PresenceWindow,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	authed := api.Group("")
	authed.Use(middleware.Session(auth))
	{
		authed.GET("/auth/me", h.Me)
		authed.POST("/auth/logout", h.Logout)

		authed.GET("/config", h.Config)

		authed.GET("/customers/search", h.SearchCustomer)
		authed.GET("/customers/:code", h.GetCustomer)
		authed.PATCH("/customers/:code", h.UpdateCustomer)
		authed.GET("/customers/:code/history", h.CustomerHistory)
		authed.GET("/customers/:code/pending-tickets", h.PendingTickets)
		authed.POST("/customers/:code/interactions", h.SaveInteraction)
		authed.GET("/tickets/:serial/interactions", h.TicketInteractions)

		authed.GET("/agents/online", h.OnlineAgents)
		authed.POST("/agents/heartbeat", h.Heartbeat)

		authed.GET("/misscalls/summary", h.MissCallSummary)

		authed.GET("/reports/agent-interactions", h.AgentInteractionsReport)
		authed.GET("/reports/processing-times", h.ProcessingTimesReport)
		authed.GET("/reports/export.xlsx", h.ExportReports)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/misscalls/import", h.ImportMissedCalls)
		admin.POST("/config/reload", h.ReloadConfig)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
