// Package api provides the HTTP/WebSocket surface for the orchestrator
// service: workflow/agent/tool-permission CRUD, the orchestration
// start/approve/reject/get lifecycle, standalone agent executions, and an
// Event Bus-backed WebSocket stream.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
	"github.com/codeready-toolchain/orchestrator-core/pkg/orchestrator"
	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	db          *database.Client
	bus         *bus.Bus
	llmRegistry *llm.Registry

	workflowService       *services.WorkflowService
	agentService          *services.AgentService
	toolPermissionService *services.ToolPermissionService
	executionService      *services.ExecutionService
	coordinator           *orchestrator.Coordinator
}

// NewServer wires a Server from its dependencies and registers every route.
func NewServer(
	db *database.Client,
	eventBus *bus.Bus,
	llmRegistry *llm.Registry,
	workflowService *services.WorkflowService,
	agentService *services.AgentService,
	toolPermissionService *services.ToolPermissionService,
	executionService *services.ExecutionService,
	coordinator *orchestrator.Coordinator,
) *Server {
	e := echo.New()

	s := &Server{
		echo:                  e,
		db:                    db,
		bus:                   eventBus,
		llmRegistry:           llmRegistry,
		workflowService:       workflowService,
		agentService:          agentService,
		toolPermissionService: toolPermissionService,
		executionService:      executionService,
		coordinator:           coordinator,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api")
	v1.POST("/workflows", s.createWorkflowHandler)
	v1.GET("/workflows", s.listWorkflowsHandler)
	v1.GET("/workflows/:id", s.getWorkflowHandler)

	v1.POST("/agents", s.createAgentHandler)
	v1.GET("/agents/:id", s.getAgentHandler)
	v1.GET("/workflows/:id/agents", s.listAgentsHandler)

	v1.POST("/tools/permissions", s.updateToolPermissionsHandler)
	v1.GET("/agents/:id/tools/permissions", s.listToolPermissionsHandler)

	v1.POST("/orchestrate", s.startOrchestrationHandler)
	v1.GET("/orchestrate/:id", s.getOrchestrationHandler)
	v1.POST("/orchestrate/:id/approve", s.approveOrchestrationHandler)
	v1.POST("/orchestrate/:id/reject", s.rejectOrchestrationHandler)

	v1.POST("/executions", s.executeAgentHandler)
	v1.GET("/executions/:id", s.getExecutionHandler)
	v1.GET("/executions/:id/messages", s.getExecutionMessagesHandler)

	v1.GET("/ws", s.wsHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by tests that want a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := &HealthResponse{
		Status: "healthy",
		Bus:    BusStats{Subscribers: s.bus.SubscriberCount()},
		LLM:    map[string]string{},
	}
	for _, name := range s.llmRegistry.Names() {
		resp.LLM[name] = "configured"
	}

	dbHealth, err := s.db.Health(reqCtx)
	if err != nil {
		resp.Status = "unhealthy"
		if dbHealth != nil {
			resp.Database = &DatabaseHealth{Status: dbHealth.Status}
		}
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	resp.Database = &DatabaseHealth{
		Status:        dbHealth.Status,
		AcquiredConns: dbHealth.AcquiredConns,
		IdleConns:     dbHealth.IdleConns,
		MaxConns:      dbHealth.MaxConns,
	}

	return c.JSON(http.StatusOK, resp)
}
