package handlers

import (
	"time"

	"scrapedeck/internal/config"
	"scrapedeck/internal/models"
	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
	users       *services.UserService
	sessions    *services.SessionService
	tokens      *services.TokenService
	audit       *services.AuditService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, users *services.UserService, sessions *services.SessionService, tokens *services.TokenService, audit *services.AuditService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		sessions:    sessions,
		tokens:      tokens,
		audit:       audit,
		cfg:         cfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	SessionToken string       `json:"session_token"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Login authenticates and hands out both identity surfaces: an opaque session
// token and a JWT access/refresh pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(401, gin.H{"error": "Invalid username or password"})
		return
	}

	duration := time.Duration(h.cfg.Session.DurationHours) * time.Hour
	sessionToken, err := h.sessions.Create(user.ID, duration, c.ClientIP())
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to create session"})
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate token"})
		return
	}

	refreshToken, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate token"})
		return
	}

	h.audit.Log(user.ID, "login", c.ClientIP(), c.GetHeader("User-Agent"))

	user.PasswordHash = ""
	c.JSON(200, LoginResponse{
		SessionToken: sessionToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates a refresh token and returns a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	accessToken, refreshToken, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(401, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	c.JSON(200, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout revokes the credential the request authenticated with: an opaque
// session is deleted, a JWT access token is blacklisted.
func (h *AuthHandler) Logout(c *gin.Context) {
	credential, exists := c.Get("credential")
	if !exists {
		c.JSON(401, gin.H{"error": "Not authenticated"})
		return
	}
	cred := credential.(string)

	if _, ok := h.sessions.Validate(cred); ok {
		if err := h.sessions.Logout(cred); err != nil {
			c.JSON(500, gin.H{"error": "Failed to logout"})
			return
		}
	} else if err := h.tokens.Logout(cred); err != nil {
		c.JSON(500, gin.H{"error": "Failed to logout"})
		return
	}

	h.audit.Log(c.GetUint("user_id"), "logout", c.ClientIP(), c.GetHeader("User-Agent"))
	c.JSON(200, gin.H{"message": "Logged out successfully"})
}

// GetAuditLog returns the caller's recent authentication events
func (h *AuthHandler) GetAuditLog(c *gin.Context) {
	entries, err := h.audit.GetForUser(c.GetUint("user_id"), 50)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to get audit log"})
		return
	}
	c.JSON(200, gin.H{"entries": entries})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(401, gin.H{"error": "Not authenticated"})
		return
	}

	user, err := h.users.GetUser(userID.(uint))
	if err != nil {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	c.JSON(200, user)
}
