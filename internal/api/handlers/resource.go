package handlers

import (
	"errors"
	"strconv"

	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	resources *services.ResourceService
}

func NewResourceHandler(resources *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

func (h *ResourceHandler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrResourceNotFound):
		c.JSON(404, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
	default:
		c.JSON(500, gin.H{"error": "Internal error"})
	}
}

func (h *ResourceHandler) GetArticles(c *gin.Context) {
	articles, err := h.resources.GetArticles(c.GetUint("user_id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, gin.H{"articles": articles})
}

type UpdateArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *ResourceHandler) UpdateArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid article ID"})
		return
	}

	var req UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	article, err := h.resources.UpdateArticle(c.GetUint("user_id"), uint(id), req.Title, req.Content)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, article)
}

func (h *ResourceHandler) DeleteArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid article ID"})
		return
	}

	if err := h.resources.DeleteArticle(c.GetUint("user_id"), uint(id)); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Article deleted"})
}

func (h *ResourceHandler) GetProfiles(c *gin.Context) {
	profiles, err := h.resources.GetProfiles(c.GetUint("user_id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, gin.H{"profiles": profiles})
}

type ProfileRequest struct {
	Name     string `json:"name" binding:"required"`
	Selector string `json:"selector"`
}

func (h *ResourceHandler) CreateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	profile, err := h.resources.CreateProfile(c.GetUint("user_id"), req.Name, req.Selector)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(201, profile)
}

func (h *ResourceHandler) UpdateProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid profile ID"})
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	profile, err := h.resources.UpdateProfile(c.GetUint("user_id"), uint(id), req.Name, req.Selector)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, profile)
}

func (h *ResourceHandler) DeleteProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid profile ID"})
		return
	}

	if err := h.resources.DeleteProfile(c.GetUint("user_id"), uint(id)); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Profile deleted"})
}
