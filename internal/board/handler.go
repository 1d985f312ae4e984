package board

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"opsboard/internal/auth"
	"opsboard/internal/events"
	"opsboard/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *events.Hub
}

func NewHandler(repo *Repo, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterRoutes wires the record-store API. rg must already carry the
// auth middleware; mutations additionally require the coordinator role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.listCategories)
	rg.GET("/links", h.listLinks)

	coord := rg.Group("", auth.RequireRole(auth.RoleCoordinator))
	coord.POST("/categories", h.createCategory)
	coord.PATCH("/categories/:id", h.updateCategory)
	coord.DELETE("/categories/:id", h.deleteCategory)
	coord.POST("/links", h.createLink)
	coord.PATCH("/links/:id", h.updateLink)
	coord.DELETE("/links/:id", h.deleteLink)
}

type categoryReq struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	ExternalURL string `json:"external_url"`
	CSVURL      string `json:"csv_url"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Section = strings.TrimSpace(req.Section)
	if req.Name == "" || req.Section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and section required"})
		return
	}

	saved, err := h.Repo.InsertCategory(c.Request.Context(), models.Category{
		Name:        req.Name,
		Section:     req.Section,
		Icon:        req.Icon,
		Color:       req.Color,
		ExternalURL: req.ExternalURL,
		CSVURL:      req.CSVURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	h.broadcast(c, "category.create", saved.ID, saved.Section)
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) listCategories(c *gin.Context) {
	items, err := h.Repo.ListCategories(c.Request.Context(), c.Query("section"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}

	updated, err := h.Repo.UpdateCategory(c.Request.Context(), id, fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	saved, err := h.Repo.GetCategory(c.Request.Context(), id)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	h.broadcast(c, "category.update", saved.ID, saved.Section)
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.Repo.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(c, "category.delete", id, "")
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type linkReq struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	CategoryID int64  `json:"category_id"`
}

func (h *Handler) createLink(c *gin.Context) {
	var req linkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.Title == "" || req.URL == "" || req.CategoryID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, url and category_id required"})
		return
	}

	saved, err := h.Repo.InsertLink(c.Request.Context(), models.Link{
		Title:      req.Title,
		URL:        req.URL,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	h.broadcast(c, "link.create", saved.ID, "")
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) listLinks(c *gin.Context) {
	var categoryID int64
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		categoryID = n
	}

	items, err := h.Repo.ListLinks(c.Request.Context(), categoryID, c.Query("section"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) updateLink(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}

	updated, err := h.Repo.UpdateLink(c.Request.Context(), id, fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	saved, err := h.Repo.GetLink(c.Request.Context(), id)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	h.broadcast(c, "link.update", saved.ID, "")
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) deleteLink(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.Repo.DeleteLink(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(c, "link.delete", id, "")
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) broadcast(c *gin.Context, eventType string, id int64, section string) {
	if h.Hub == nil {
		return
	}
	actor := ""
	if claims := auth.MustGetClaims(c); claims != nil {
		actor = claims.Username
	}
	ev := events.BoardEvent{
		Type:    eventType,
		ID:      id,
		Section: section,
		Actor:   actor,
		At:      time.Now().UTC(),
	}
	go h.Hub.BroadcastJSON(ev)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func bindFields(c *gin.Context) (map[string]any, bool) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return nil, false
	}
	return fields, true
}
