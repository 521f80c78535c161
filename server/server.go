// Package server exposes the marketplace over HTTP. Route protection mirrors
// the page guard: resolve the caller's snapshot once per request, then let
// per-group requirements decide between proceed, 401 and 403.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"estatenexus/auth"
	"estatenexus/config"
	"estatenexus/services"
	"estatenexus/storage"
)

type Server struct {
	echo *echo.Echo
	addr string
}

type Deps struct {
	Verifier  *auth.TokenVerifier
	Identity  IdentityReader
	Audit     AuditSink
	Cache     *storage.Cache
	Listings  *services.ListingService
	Directory *services.DirectoryService
	Companies *services.CompanyService
	Importer  *services.ImporterService
	AuthAPI   *storage.SupabaseAuth
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(ResolveSnapshot(deps.Verifier, deps.Identity, deps.Cache))

	h := &handlers{
		listings:  deps.Listings,
		directory: deps.Directory,
		companies: deps.Companies,
		importer:  deps.Importer,
		authAPI:   deps.AuthAPI,
		cache:     deps.Cache,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Public browse surface.
	api.GET("/properties", h.searchProperties)
	api.GET("/search", h.searchProperties)
	api.GET("/properties/:id", h.getProperty)
	api.GET("/agents", h.searchAgents)
	api.GET("/agents/:id", h.getAgent)
	api.POST("/agents/:id/contact", h.contactAgent)
	api.GET("/companies/:id", h.getCompany)

	api.POST("/auth/signup", h.signUp)
	api.POST("/auth/signin", h.signIn)
	api.POST("/auth/signout", h.signOut)

	// Any authenticated user.
	authed := api.Group("", Require(auth.Requirements{RequireAuth: true}, deps.Audit))
	authed.GET("/auth/me", h.me)
	authed.POST("/companies", h.registerCompany)
	authed.POST("/invitations/accept", h.acceptInvitation)
	authed.GET("/companies/:id/members", h.listMembers)
	authed.GET("/companies/:id/invitations", h.listInvitations)
	authed.POST("/companies/:id/invitations", h.createInvitation)
	authed.DELETE("/invitations/:token", h.revokeInvitation)
	authed.PUT("/companies/:id/members/:memberId", h.changeMemberRole)
	authed.DELETE("/companies/:id/members/:memberId", h.removeMember)

	// Agent capability required.
	agent := api.Group("", Require(auth.Requirements{RequireAuth: true, RequireAgent: true}, deps.Audit))
	agent.POST("/properties", h.createProperty)
	agent.PUT("/properties/:id", h.updateProperty)
	agent.DELETE("/properties/:id", h.deleteProperty)
	agent.POST("/properties/import", h.importProperty)
	agent.GET("/dashboard/stats", h.dashboardStats)
	agent.GET("/dashboard/activity", h.dashboardActivity)

	return &Server{echo: e, addr: cfg.Addr}
}

func (s *Server) Start() error {
	err := s.echo.Start(s.addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
