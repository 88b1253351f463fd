package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Yonela986/kanban-board/internal/notify"
)

type permissionRequest struct {
	Permission string `json:"permission"`
}

// handleListNotifications returns the newest inbox entries.
func (s *Server) handleListNotifications(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	unread := c.Query("unread") == "true"

	items, err := s.inbox.List(c.Request.Context(), limit, unread)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notifications": items})
}

// handleMarkRead stamps one notification as read.
func (s *Server) handleMarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := s.inbox.MarkRead(c.Request.Context(), id)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notification": n})
}

// handleGetPermission reports whether notifications are delivered.
func (s *Server) handleGetPermission(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"permission": s.gate.Permission()})
}

// handleSetPermission records the browser's permission decision.
func (s *Server) handleSetPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	p, err := notify.ParsePermission(req.Permission)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.gate.Set(p)
	respondSuccess(c, http.StatusOK, gin.H{"permission": p})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}
