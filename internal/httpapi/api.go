// Package httpapi exposes the engine over HTTP. Handlers translate
// between JSON and engine calls; every error reaches the client
// through one status mapping so the engine's error taxonomy stays the
// single source of truth.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authservice "github.com/Vadimvill/auth-service"
)

// accessTokenCookie mirrors the cookie set on login so browser
// clients authenticate without an Authorization header.
const accessTokenCookie = "access_token"

// Permissions enforced on the admin surface.
const (
	PermAdminUsers = "admin:users"
	PermAdminRBAC  = "admin:rbac"
)

// Server wires the engine into a gin router.
type Server struct {
	engine         *authservice.Engine
	metricsHandler http.Handler
}

// New returns a Server. metricsHandler may be nil to disable the
// /metrics route.
func New(engine *authservice.Engine, metricsHandler http.Handler) *Server {
	return &Server{engine: engine, metricsHandler: metricsHandler}
}

// Router builds the route table. Public routes skip authentication;
// everything else passes the auth middleware and, for admin routes,
// a permission check.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	r.POST("/login", s.handleLogin)
	r.POST("/refresh", s.handleRefresh)
	r.POST("/registration", s.handleRegister)

	authed := r.Group("/", s.authenticate)
	authed.POST("/logout", s.handleLogout)
	authed.GET("/me", s.handleMe)
	authed.POST("/password", s.handleChangePassword)

	users := authed.Group("/users", s.requirePermission(PermAdminUsers))
	users.GET("/:id", s.handleGetUser)
	users.PATCH("/:id", s.handleUpdateUser)
	users.POST("/:id/deactivate", s.handleDeactivateUser)
	users.PUT("/:id/role", s.handleAssignRole)

	rbac := authed.Group("/", s.requirePermission(PermAdminRBAC))
	rbac.POST("/roles", s.handleCreateRole)
	rbac.PATCH("/roles/:id", s.handleRenameRole)
	rbac.DELETE("/roles/:id", s.handleDeleteRole)
	rbac.GET("/roles/:id/permissions", s.handleRolePermissions)
	rbac.POST("/roles/:id/permissions", s.handleGrantPermission)
	rbac.DELETE("/roles/:id/permissions/:name", s.handleRevokePermission)
	rbac.POST("/permissions", s.handleCreatePermission)
	rbac.PATCH("/permissions/:id", s.handleRenamePermission)
	rbac.DELETE("/permissions/:id", s.handleDeletePermission)

	return r
}

// authenticate validates the access token from the Authorization
// header or the access_token cookie and stores the claims on the
// request context.
func (s *Server) authenticate(c *gin.Context) {
	raw, ok := requestToken(c)
	if !ok {
		abortWithError(c, authservice.ErrUnauthenticated)
		return
	}
	claims, err := s.engine.Validate(c.Request.Context(), raw)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Request = c.Request.WithContext(authservice.WithClaims(c.Request.Context(), claims))
	c.Next()
}

func (s *Server) requirePermission(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := authservice.ClaimsFromContext(c.Request.Context())
		if err := s.engine.Require(c.Request.Context(), claims, name); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) (string, bool) {
	const bearer = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(bearer) && header[:len(bearer)] == bearer {
		return header[len(bearer):], true
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// abortWithError is the single place engine errors become HTTP
// statuses. Anything outside the taxonomy is a 500 with no detail
// leaked to the client.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, authservice.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, authservice.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, authservice.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, authservice.ErrAlreadyExists):
		status, message = http.StatusConflict, "already exists"
	case errors.Is(err, authservice.ErrInvalidInput):
		status, message = http.StatusUnprocessableEntity, "invalid input"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
