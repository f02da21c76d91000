package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/database"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/web"
)

const (
	msgTaskCreated  = "Task created."
	msgTaskUpdated  = "Task updated."
	msgTaskToggled  = "Task status updated."
	msgTaskDeleted  = "Task deleted."
	msgTaskNotFound = "Task not found."
)

// Index lists the current user's tasks.
func (h *Handler) Index(c *gin.Context) {
	auth := middleware.CurrentUser(c)
	params := parseListQueryParams(c.Query("limit"), c.Query("offset"), c.Query("search"), defaultPageLimit, maxPageLimit)

	tasks, total, err := h.store.ListTasks(c.Request.Context(), auth.UserID, database.TaskQuery{
		Pattern: params.Pattern,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		h.renderServerError(c, "list tasks", err)
		return
	}

	prevURL, nextURL := params.pageLinks(total)
	h.render(c, http.StatusOK, "index.html", gin.H{
		"Tasks":   tasks,
		"Total":   total,
		"Search":  params.Search,
		"PrevURL": prevURL,
		"NextURL": nextURL,
	})
}

// NewTaskPage shows an empty task form.
func (h *Handler) NewTaskPage(c *gin.Context) {
	h.renderTaskForm(c, http.StatusOK, "New Task", "/tasks/new", models.TaskForm{}, false, nil)
}

// CreateTask creates a new task owned by the current user
func (h *Handler) CreateTask(c *gin.Context) {
	startedAt := time.Now()
	success := false
	defer func() {
		monitoring.RecordTaskWrite(time.Since(startedAt), success)
	}()

	var form models.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderTaskForm(c, http.StatusBadRequest, "New Task", "/tasks/new", form, false, []string{msgInvalidFormBody})
		return
	}
	form.Normalize()

	dueDate, errs := form.Validate()
	if len(errs) > 0 {
		h.renderTaskForm(c, http.StatusBadRequest, "New Task", "/tasks/new", form, false, errs)
		return
	}

	task := models.Task{UserID: middleware.CurrentUser(c).UserID}
	form.Apply(&task, dueDate)

	if err := h.store.CreateTask(c.Request.Context(), &task); err != nil {
		h.renderServerError(c, "create task", err)
		return
	}

	success = true
	redirectWithFlash(c, "/", web.FlashSuccess, msgTaskCreated)
}

// EditTaskPage shows the form prefilled with the stored task.
func (h *Handler) EditTaskPage(c *gin.Context) {
	task, ok := h.loadOwnedTask(c)
	if !ok {
		return
	}
	h.renderTaskForm(c, http.StatusOK, "Edit Task", editAction(task.ID), models.TaskFormFrom(task), true, nil)
}

// UpdateTask updates an existing task
func (h *Handler) UpdateTask(c *gin.Context) {
	startedAt := time.Now()
	success := false
	defer func() {
		monitoring.RecordTaskWrite(time.Since(startedAt), success)
	}()

	task, ok := h.loadOwnedTask(c)
	if !ok {
		return
	}

	var form models.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderTaskForm(c, http.StatusBadRequest, "Edit Task", editAction(task.ID), form, true, []string{msgInvalidFormBody})
		return
	}
	form.Normalize()

	dueDate, errs := form.Validate()
	if len(errs) > 0 {
		h.renderTaskForm(c, http.StatusBadRequest, "Edit Task", editAction(task.ID), form, true, errs)
		return
	}

	form.Apply(&task, dueDate)
	task.IsCompleted = form.Completed()

	if err := h.store.UpdateTask(c.Request.Context(), task); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderNotFound(c, msgTaskNotFound)
			return
		}
		h.renderServerError(c, "update task", err)
		return
	}

	success = true
	redirectWithFlash(c, "/", web.FlashSuccess, msgTaskUpdated)
}

// ToggleTask flips the completion flag of a task
func (h *Handler) ToggleTask(c *gin.Context) {
	startedAt := time.Now()
	success := false
	defer func() {
		monitoring.RecordTaskWrite(time.Since(startedAt), success)
	}()

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c, msgTaskNotFound)
		return
	}

	if _, err := h.store.ToggleTask(c.Request.Context(), middleware.CurrentUser(c).UserID, taskID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderNotFound(c, msgTaskNotFound)
			return
		}
		h.renderServerError(c, "toggle task", err)
		return
	}

	success = true
	redirectWithFlash(c, "/", web.FlashSuccess, msgTaskToggled)
}

// DeleteTask deletes a task by its ID
func (h *Handler) DeleteTask(c *gin.Context) {
	startedAt := time.Now()
	success := false
	defer func() {
		monitoring.RecordTaskWrite(time.Since(startedAt), success)
	}()

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c, msgTaskNotFound)
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), middleware.CurrentUser(c).UserID, taskID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderNotFound(c, msgTaskNotFound)
			return
		}
		h.renderServerError(c, "delete task", err)
		return
	}

	success = true
	redirectWithFlash(c, "/", web.FlashInfo, msgTaskDeleted)
}

// loadOwnedTask resolves :id to a task of the current user. Tasks of other
// users are reported as missing so their existence is not revealed.
func (h *Handler) loadOwnedTask(c *gin.Context) (models.Task, bool) {
	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderNotFound(c, msgTaskNotFound)
		return models.Task{}, false
	}

	task, err := h.store.GetTask(c.Request.Context(), middleware.CurrentUser(c).UserID, taskID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderNotFound(c, msgTaskNotFound)
			return models.Task{}, false
		}
		h.renderServerError(c, "load task", err)
		return models.Task{}, false
	}
	return task, true
}

func (h *Handler) renderTaskForm(c *gin.Context, status int, heading string, action string, form models.TaskForm, showCompleted bool, errs []string) {
	h.render(c, status, "task_form.html", gin.H{
		"Heading":       heading,
		"Action":        action,
		"Form":          form,
		"ShowCompleted": showCompleted,
		"Errors":        errs,
	})
}

func editAction(taskID int) string {
	return fmt.Sprintf("/tasks/%d/edit", taskID)
}
