package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authservice "github.com/Vadimvill/auth-service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}

	ctx := authservice.WithClientIP(c.Request.Context(), c.ClientIP())
	result, err := s.engine.Login(ctx, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	maxAge := int(s.engine.AccessTTL().Seconds())
	c.SetCookie(accessTokenCookie, result.AccessToken, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}

	ctx := authservice.WithClientIP(c.Request.Context(), c.ClientIP())
	access, err := s.engine.Refresh(ctx, req.RefreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	maxAge := int(s.engine.AccessTTL().Seconds())
	c.SetCookie(accessTokenCookie, access, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "bearer"})
}

func (s *Server) handleLogout(c *gin.Context) {
	claims, _ := authservice.ClaimsFromContext(c.Request.Context())
	if claims == nil {
		abortWithError(c, authservice.ErrUnauthenticated)
		return
	}

	ctx := authservice.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := s.engine.Logout(ctx, claims.UserID); err != nil {
		abortWithError(c, err)
		return
	}

	c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

type registerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	RoleID   string `json:"role_id" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	RoleID   string `json:"role_id"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}

	ctx := authservice.WithClientIP(c.Request.Context(), c.ClientIP())
	user, err := s.engine.Register(ctx, authservice.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
		IsActive: true,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleMe(c *gin.Context) {
	claims, _ := authservice.ClaimsFromContext(c.Request.Context())
	if claims == nil {
		abortWithError(c, authservice.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     claims.UserID,
		"role_id":     claims.RoleID,
		"permissions": claims.Permissions.Names(),
		"expires_at":  claims.ExpiresAt,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	claims, _ := authservice.ClaimsFromContext(c.Request.Context())
	if claims == nil {
		abortWithError(c, authservice.ErrUnauthenticated)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	if err := s.engine.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.engine.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}

	user, err := s.engine.UpdateUser(c.Request.Context(), c.Param("id"), authservice.UserPatch{
		FullName: req.FullName,
		Email:    req.Email,
		IsActive: req.IsActive,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeactivateUser(c *gin.Context) {
	if err := s.engine.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRoleRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

func (s *Server) handleAssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	if err := s.engine.AssignRole(c.Request.Context(), c.Param("id"), req.RoleID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleCreateRole(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	role, err := s.engine.CreateRole(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (s *Server) handleRenameRole(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	role, err := s.engine.RenameRole(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (s *Server) handleDeleteRole(c *gin.Context) {
	if err := s.engine.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRolePermissions(c *gin.Context) {
	set, err := s.engine.ResolvePermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": set.Names()})
}

func (s *Server) handleGrantPermission(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	if err := s.engine.GrantPermission(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRevokePermission(c *gin.Context) {
	if err := s.engine.RevokePermission(c.Request.Context(), c.Param("id"), c.Param("name")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreatePermission(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	perm, err := s.engine.CreatePermission(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, perm)
}

func (s *Server) handleRenamePermission(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, authservice.ErrInvalidInput)
		return
	}
	perm, err := s.engine.RenamePermission(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, perm)
}

func (s *Server) handleDeletePermission(c *gin.Context) {
	if err := s.engine.DeletePermission(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.engine.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func toUserResponse(user *authservice.UserRecord) userResponse {
	return userResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		IsActive: user.IsActive,
		RoleID:   user.RoleID,
	}
}
