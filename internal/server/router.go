// Package server wires the HTTP API together: routes, auth middleware, and
// the websocket change feed.
package server

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	auditrepo "podnotes/backend/internal/audit/repository"
	authhandler "podnotes/backend/internal/auth/handler"
	authservice "podnotes/backend/internal/auth/service"
	healthhandler "podnotes/backend/internal/health/handler"
	membershiphandler "podnotes/backend/internal/membership/handler"
	membershipservice "podnotes/backend/internal/membership/service"
	notehandler "podnotes/backend/internal/note/handler"
	noteservice "podnotes/backend/internal/note/service"
	"podnotes/backend/internal/platform/rbac"
	podhandler "podnotes/backend/internal/pod/handler"
	podservice "podnotes/backend/internal/pod/service"
	"podnotes/backend/internal/realtime"
	"podnotes/backend/internal/security"
	"podnotes/backend/internal/server/middleware"
	userhandler "podnotes/backend/internal/user/handler"
	userservice "podnotes/backend/internal/user/service"
)

// Deps holds the services the router mounts.
type Deps struct {
	Tokens *security.TokenProvider
	// Roles resolves pod membership for guards and the websocket feed.
	Roles rbac.PodRoleGetter
	// Broker fans realtime change events out to websocket subscribers.
	Broker *realtime.Broker

	Auth        *authservice.AuthService
	Pods        *podservice.Service
	Memberships *membershipservice.Service
	Notes       *noteservice.Service
	Users       *userservice.Service
	// ActivityRepo backs the pod activity feed. May be nil.
	ActivityRepo auditrepo.Repository
	// DB is used by the readiness probe. May be nil.
	DB *sql.DB
	// StaticDir, when non-empty, is served under /static (avatar images).
	StaticDir string
	// ServiceName names the server in traces.
	ServiceName string
}

// NewRouter builds the gin engine with all routes mounted. Health probes and
// auth endpoints are public; everything else requires a bearer access token.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	name := deps.ServiceName
	if name == "" {
		name = "podnotes"
	}
	r.Use(otelgin.Middleware(name))

	healthhandler.NewHandler(deps.DB).Register(r)
	if deps.StaticDir != "" {
		r.Static("/static", deps.StaticDir)
	}

	public := r.Group("/v1")
	authhandler.NewHandler(deps.Auth).Register(public)

	authed := r.Group("/v1")
	authed.Use(middleware.Auth(deps.Tokens))
	podhandler.NewHandler(deps.Pods, deps.Roles, deps.ActivityRepo).Register(authed)
	membershiphandler.NewHandler(deps.Memberships, deps.Roles).Register(authed)
	notehandler.NewHandler(deps.Notes).Register(authed)
	userhandler.NewHandler(deps.Users).Register(authed)

	if deps.Broker != nil {
		ws := realtime.NewWSHandler(deps.Broker, deps.Roles)
		wsGroup := r.Group("/ws")
		wsGroup.Use(middleware.Auth(deps.Tokens))
		wsGroup.GET("/changes", ws.Serve)
	}

	return r
}
