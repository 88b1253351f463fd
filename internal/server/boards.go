package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/models"
)

type boardRequest struct {
	Name     string      `json:"name"`
	Duration int         `json:"duration"`
	Unit     models.Unit `json:"unit"`
}

type reorderRequest struct {
	Column models.ColumnID `json:"column"`
	From   int             `json:"from"`
	To     int             `json:"to"`
}

type dragRequest struct {
	Source      kanban.Position `json:"source"`
	Destination kanban.Position `json:"destination"`
}

// handleSnapshot returns every board plus the active selection.
func (s *Server) handleSnapshot(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.registry.Snapshot())
}

// handleCreateBoard registers a new sprint board and selects it.
func (s *Server) handleCreateBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Unit == "" {
		req.Unit = models.UnitWeek
	}

	board, err := s.registry.CreateBoard(req.Name, req.Duration, req.Unit)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"board": s.view(board)})
}

// handleGetBoard returns one board with its derived fields.
func (s *Server) handleGetBoard(c *gin.Context) {
	board, err := s.registry.Board(c.Param("name"))
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": s.view(board)})
}

// handleDeleteBoard removes a board and all of its tasks.
func (s *Server) handleDeleteBoard(c *gin.Context) {
	name := c.Param("name")
	if err := s.registry.DeleteBoard(name); err != nil {
		s.respondDomainError(c, err)
		return
	}
	if s.inbox != nil {
		if err := s.inbox.DeleteBoard(c.Request.Context(), name); err != nil {
			s.logger.Warn("failed to purge board notifications", zap.String("board", name), zap.Error(err))
		}
	}
	active, _ := s.registry.Active()
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted", "active": active})
}

// handleSelectBoard moves the active-board pointer.
func (s *Server) handleSelectBoard(c *gin.Context) {
	if err := s.registry.SelectBoard(c.Param("name")); err != nil {
		s.respondDomainError(c, err)
		return
	}
	active, _ := s.registry.Active()
	respondSuccess(c, http.StatusOK, gin.H{"active": active})
}

// handleDrag applies a drag-and-drop gesture.
func (s *Server) handleDrag(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	name := c.Param("name")
	if err := s.registry.Drag(name, req.Source, req.Destination); err != nil {
		s.respondDomainError(c, err)
		return
	}
	s.respondBoard(c, name)
}

// handleReorder moves a task within one column.
func (s *Server) handleReorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	name := c.Param("name")
	if err := s.registry.Reorder(name, req.Column, req.From, req.To); err != nil {
		s.respondDomainError(c, err)
		return
	}
	s.respondBoard(c, name)
}

// handleMove transfers a task between columns.
func (s *Server) handleMove(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	name := c.Param("name")
	if err := s.registry.Move(name, req.Source, req.Destination); err != nil {
		s.respondDomainError(c, err)
		return
	}
	s.respondBoard(c, name)
}

func (s *Server) respondBoard(c *gin.Context, name string) {
	board, err := s.registry.Board(name)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": s.view(board)})
}

func (s *Server) view(b models.Board) models.BoardView {
	now := s.registry.Now()
	return models.BoardView{Board: b, DaysRemaining: kanban.DaysRemaining(b.EndDate, now)}
}
