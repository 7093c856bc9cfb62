/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"api-manager/src/config"
	"api-manager/src/internal/database"
	"api-manager/src/internal/handler"
	"api-manager/src/internal/middleware"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/service"
	"api-manager/src/internal/utils"
	"api-manager/src/internal/websocket"
)

// Server bundles the HTTP router with the long-lived components that need a
// graceful shutdown.
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	db           *database.DB
	wsManager    *websocket.Manager
	auditService *service.AuditService
}

// New creates a server instance with all dependencies initialized
func New(cfg *config.Server) (*Server, error) {
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	// Initialize schema (skip when ExecuteSchemaDDL is false, e.g. deployed
	// Postgres without DDL access)
	if cfg.Database.ExecuteSchemaDDL {
		if err := db.InitSchema(cfg.DBSchemaPath); err != nil {
			return nil, err
		}
	} else {
		utils.LogInfo("Skipping schema DDL execution (DATABASE_EXECUTE_SCHEMA_DDL=false)")
	}

	// Repositories
	apiRepo := repository.NewAPIRepo(db)
	eventRepo := repository.NewEventRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	planRepo := repository.NewPlanRepo(db)

	// The audit recorder starts first: every other service records into it.
	auditService := service.NewAuditService(auditRepo, cfg.Audit.QueueSize)

	// WebSocket manager and notifier
	wsConfig := websocket.ManagerConfig{
		MaxConnections:    cfg.WebSocket.MaxConnections,
		HeartbeatInterval: 20 * time.Second,
		HeartbeatTimeout:  time.Duration(cfg.WebSocket.ConnectionTimeout) * time.Second,
	}
	wsManager := websocket.NewManager(wsConfig)
	notifier := service.NewNotifierService(wsManager)

	// Per-API lock shared by every read-modify-write path
	locks := utils.NewKeyMutex()

	// Services
	deploymentService := service.NewDeploymentService(apiRepo, eventRepo, auditService, notifier, locks)
	lifecycleService := service.NewLifecycleService(apiRepo, planRepo, auditService, notifier, locks)
	syncService, err := service.NewSyncService(apiRepo, eventRepo, planRepo, cfg.Sync.SnapshotCacheSize)
	if err != nil {
		return nil, err
	}
	apiService := service.NewApiService(apiRepo, eventRepo, planRepo,
		deploymentService, lifecycleService, auditService, notifier, locks)
	planService := service.NewPlanService(apiRepo, planRepo, auditService)

	// Handlers
	apiHandler := handler.NewAPIHandler(apiService, deploymentService, lifecycleService,
		syncService, planService)
	auditHandler := handler.NewAuditHandler(auditService)
	wsHandler := handler.NewWebSocketHandler(wsManager)

	// Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	authConfig := middleware.AuthConfig{
		SecretKey:      cfg.JWT.SecretKey,
		TokenIssuer:    cfg.JWT.Issuer,
		SkipPaths:      cfg.JWT.SkipPaths,
		SkipValidation: cfg.JWT.SkipValidation,
	}
	router.Use(middleware.AuthMiddleware(authConfig))

	apiHandler.RegisterRoutes(router)
	auditHandler.RegisterRoutes(router)
	wsHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	utils.LogInfo("WebSocket manager initialized: maxConnections=%d heartbeatTimeout=%ds",
		cfg.WebSocket.MaxConnections, cfg.WebSocket.ConnectionTimeout)

	return &Server{
		router:       router,
		db:           db,
		wsManager:    wsManager,
		auditService: auditService,
	}, nil
}

// Start runs the HTTP server on the given port, blocking until the server
// stops.
func (s *Server) Start(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.router,
	}

	utils.LogInfo("Starting HTTP server on port %s", port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener, closes subscriber connections, drains
// the audit queue and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}

	s.wsManager.Shutdown()
	s.auditService.Close()

	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetRouter returns the gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
