package handlers

import (
	"errors"
	"strconv"

	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users       *services.UserService
	authService *services.AuthService
	perms       *services.PermissionService
	tokens      *services.TokenService
}

func NewUserHandler(users *services.UserService, authService *services.AuthService, perms *services.PermissionService, tokens *services.TokenService) *UserHandler {
	return &UserHandler{
		users:       users,
		authService: authService,
		perms:       perms,
		tokens:      tokens,
	}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.users.GetUsers()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to get users"})
		return
	}
	c.JSON(200, gin.H{"users": users})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.users.GetUser(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to get user"})
		return
	}
	c.JSON(200, user)
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	role := services.ParseRole(req.Role)
	if role == services.RoleGuest {
		role = services.RoleUser
	}

	user, err := h.authService.CreateUser(req.Username, req.Password, req.Email, role.String())
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(409, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to create user"})
		return
	}

	user.PasswordHash = ""
	c.JSON(201, user)
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"required"`
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.users.UpdateUser(uint(id), req.Username, req.Email, services.ParseRole(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(404, gin.H{"error": "User not found"})
		case errors.Is(err, services.ErrUserExists):
			c.JSON(409, gin.H{"error": "Username already taken"})
		default:
			c.JSON(500, gin.H{"error": "Failed to update user"})
		}
		return
	}
	c.JSON(200, user)
}

type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// UpdatePassword lets a user change their own password; admins can change
// anyone's.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	callerID := c.GetUint("user_id")
	if err := h.perms.RequireOwnership(callerID, uint(id)); err != nil {
		c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.authService.UpdatePassword(uint(id), req.Password); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to update password"})
		return
	}
	c.JSON(200, gin.H{"message": "Password updated"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.users.DeleteUser(uint(id)); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "User deleted"})
}

// RevokeTokens severs every refresh-token lineage of a user, for a stricter
// logout than blacklisting a single access token.
func (h *UserHandler) RevokeTokens(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid user ID"})
		return
	}

	callerID := c.GetUint("user_id")
	if err := h.perms.RequireOwnership(callerID, uint(id)); err != nil {
		c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
		return
	}

	if err := h.tokens.RevokeRefreshTokens(uint(id)); err != nil {
		c.JSON(500, gin.H{"error": "Failed to revoke tokens"})
		return
	}
	c.JSON(200, gin.H{"message": "Refresh tokens revoked"})
}

func (h *UserHandler) GetSessions(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessions, err := h.users.GetSessions(userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to get sessions"})
		return
	}
	c.JSON(200, gin.H{"sessions": sessions})
}
