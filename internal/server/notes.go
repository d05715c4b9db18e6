package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/models"
)

type noteRequest struct {
	Content models.Document `json:"content"`
	Type    string          `json:"type"`
}

// handleEditNote queues an editor change. The note is written once the
// editor has been quiet for the adapter's quiet period.
func (s *Server) handleEditNote(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.vm.Task(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	noteType, err := models.ParseNoteType(req.Type)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.notes.Edit(id, req.Content, noteType); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"pending": s.notes.Pending(id)})
}

// handleFlushNote writes a pending editor change immediately.
func (s *Server) handleFlushNote(c *gin.Context) {
	id := c.Param("id")
	flushed := s.notes.Flush(id)
	if task, ok := s.vm.Task(id); ok {
		c.JSON(http.StatusOK, gin.H{"flushed": flushed, "task": task})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flushed": flushed, "task": nil})
}
