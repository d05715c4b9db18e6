package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/notes"
	"folio/internal/view"
	"folio/internal/viewmodel"
)

type viewRequest struct {
	Search   *string `json:"search"`
	Filter   *string `json:"filter"`
	SortBy   *string `json:"sortBy"`
	SortType *string `json:"sortType"`
	Page     *int    `json:"page"`
}

type selectionRequest struct {
	ID string `json:"id" binding:"required"`
}

// handleGetView returns the stored list parameters.
func (s *Server) handleGetView(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"params": s.vm.Params()})
}

// handleSetView updates list parameters and returns the resulting page.
func (s *Server) handleSetView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	cur := s.vm.Params()
	key, dir := cur.SortKey, cur.SortDir
	if req.SortBy != nil {
		k, err := view.ParseSortKey(*req.SortBy)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		key = k
	}
	if req.SortType != nil {
		d, err := view.ParseSortDir(*req.SortType)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		dir = d
	}
	if req.Page != nil && *req.Page < 1 {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid page %d", *req.Page))
		return
	}
	if req.Filter != nil {
		if err := s.vm.SetFilter(*req.Filter); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	if req.Search != nil {
		s.vm.SetSearch(*req.Search)
	}
	s.vm.SetSort(key, dir)
	if req.Page != nil {
		s.vm.SetPage(*req.Page)
	}
	respondSuccess(c, http.StatusOK, gin.H{"params": s.vm.Params(), "page": s.vm.Page()})
}

// handleGetForm returns the dialog buffers.
func (s *Server) handleGetForm(c *gin.Context) {
	st := s.vm.Snapshot()
	respondSuccess(c, http.StatusOK, gin.H{"form": st.Form, "editingId": st.EditingID, "dialogOpen": st.DialogOpen})
}

// handleSetForm stores a draft in the dialog buffers and opens the dialog.
func (s *Server) handleSetForm(c *gin.Context) {
	var req viewmodel.FormState
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.vm.SetForm(req)
	s.vm.SetDialogOpen(true)
	respondSuccess(c, http.StatusOK, gin.H{"form": req})
}

// handleResetForm abandons the dialog.
func (s *Server) handleResetForm(c *gin.Context) {
	s.vm.ResetForm()
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleSelect opens the detail view for a task.
func (s *Server) handleSelect(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if !s.vm.Select(req.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	task, _ := s.vm.Selected()
	detail := s.vm.Detail()
	surface := s.notes.Load(task.ID, func() error { return notes.Validate(detail.Editor) })
	respondSuccess(c, http.StatusOK, gin.H{
		"selected":    task,
		"detail":      detail,
		"editor":      surface,
		"placeholder": notes.Placeholder(surface),
	})
}

// handleClearSelection closes the detail view.
func (s *Server) handleClearSelection(c *gin.Context) {
	s.vm.ClearSelection()
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleState returns every piece of UI state at once.
func (s *Server) handleState(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.vm.Snapshot())
}

// handleSaveStatus returns the save indicator.
func (s *Server) handleSaveStatus(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.vm.SaveStatus())
}

// handleManualSave starts a save cycle unless one is running.
func (s *Server) handleManualSave(c *gin.Context) {
	started := s.vm.TriggerManualSave()
	respondSuccess(c, http.StatusAccepted, gin.H{"started": started, "save": s.vm.SaveStatus()})
}
