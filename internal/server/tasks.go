package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"folio/internal/models"
	"folio/internal/view"
	"folio/internal/viewmodel"
)

type taskRequest struct {
	Text    string `json:"text"`
	DueDate string `json:"dueDate"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type dueDateRequest struct {
	DueDate *string `json:"dueDate"`
}

// handleListTasks returns the current page. Query parameters override the
// stored list parameters for this response only.
func (s *Server) handleListTasks(c *gin.Context) {
	params, err := paramsFromQuery(c, s.vm.Params())
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, view.Compute(s.vm.Tasks(), params))
}

// handleListAllTasks returns the full collection in store order.
func (s *Server) handleListAllTasks(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"tasks": s.vm.Tasks()})
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	task, ok := s.vm.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleSubmitTask submits the add/edit dialog: it creates a task unless an
// edit was started with POST /tasks/:id/edit.
func (s *Server) handleSubmitTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	status := http.StatusCreated
	if s.vm.Snapshot().EditingID != "" {
		status = http.StatusOK
	}
	s.submit(c, req, status)
}

// handleEditTask replaces a task's text and due date. The session's dialog
// buffers are left as they are.
func (s *Server) handleEditTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	task, err := s.vm.EditTask(c.Request.Context(), c.Param("id"), viewmodel.FormState{Text: req.Text, DueDate: req.DueDate})
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	if task.ID == "" {
		// a task deleted elsewhere is not an error
		respondSuccess(c, http.StatusOK, gin.H{"task": nil})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) submit(c *gin.Context, req taskRequest, status int) {
	task, err := s.vm.AddOrUpdateTask(c.Request.Context(), viewmodel.FormState{Text: req.Text, DueDate: req.DueDate})
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	if task.ID == "" {
		respondSuccess(c, http.StatusOK, gin.H{"task": nil})
		return
	}
	respondSuccess(c, status, gin.H{"task": task})
}

// handleStartEditing loads a task into the dialog form.
func (s *Server) handleStartEditing(c *gin.Context) {
	if !s.vm.StartEditing(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"form": s.vm.Snapshot().Form})
}

// handleUpdateStatus moves a task between statuses.
func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	id := c.Param("id")
	if err := s.vm.HandleDetailStatusChange(c.Request.Context(), id, models.Status(req.Status)); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	s.respondTask(c, id)
}

// handleUpdateDueDate sets or clears a task's due date.
func (s *Server) handleUpdateDueDate(c *gin.Context) {
	var req dueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	raw := ""
	if req.DueDate != nil {
		raw = *req.DueDate
	}
	due, err := viewmodel.ParseInputDate(raw)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	id := c.Param("id")
	if err := s.vm.HandleDetailDueDateChange(c.Request.Context(), id, due); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	s.respondTask(c, id)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.vm.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// respondTask returns the fresh task, or null when it no longer exists.
func (s *Server) respondTask(c *gin.Context, id string) {
	if task, ok := s.vm.Task(id); ok {
		respondSuccess(c, http.StatusOK, gin.H{"task": task})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": nil})
}

func paramsFromQuery(c *gin.Context, p view.Params) (view.Params, error) {
	if v, ok := c.GetQuery("search"); ok {
		p = p.WithSearch(v)
	}
	if v, ok := c.GetQuery("filter"); ok {
		f, err := view.ParseFilter(v)
		if err != nil {
			return p, err
		}
		p = p.WithFilter(f)
	}
	key, dir := p.SortKey, p.SortDir
	if v, ok := c.GetQuery("sortBy"); ok {
		k, err := view.ParseSortKey(v)
		if err != nil {
			return p, err
		}
		key = k
	}
	if v, ok := c.GetQuery("sortType"); ok {
		d, err := view.ParseSortDir(v)
		if err != nil {
			return p, err
		}
		dir = d
	}
	p = p.WithSort(key, dir)
	if v, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.Page = n
	}
	return p, nil
}
