package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yonela986/kanban-board/internal/models"
)

type commentRequest struct {
	Text string `json:"text"`
}

type timerRequest struct {
	Minutes int `json:"minutes"`
}

// taskRef reads the board, column and task id path parameters.
func taskRef(c *gin.Context) (board string, col models.ColumnID, id string) {
	return c.Param("name"), models.ColumnID(c.Param("column")), c.Param("id")
}

// handleCreateTask adds a task to the todo column of a board.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.TaskFields
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.registry.CreateTask(c.Param("name"), req)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task, "column": models.ColumnTodo})
}

// handleUpdateTask replaces the editable fields of a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req models.TaskFields
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	board, col, id := taskRef(c)
	task, err := s.registry.UpdateTask(board, id, col, req)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	board, col, id := taskRef(c)
	if err := s.registry.DeleteTask(board, id, col); err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleAddComment appends a comment to a task.
func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	board, col, id := taskRef(c)
	comment, err := s.registry.AddComment(board, id, col, req.Text)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleStartTimer starts a countdown on a task.
func (s *Server) handleStartTimer(c *gin.Context) {
	var req timerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	board, col, id := taskRef(c)
	task, err := s.registry.StartTimer(board, id, col, req.Minutes)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleStopTimer stops a countdown and keeps its recorded fields.
func (s *Server) handleStopTimer(c *gin.Context) {
	board, col, id := taskRef(c)
	task, err := s.registry.StopTimer(board, id, col)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}
