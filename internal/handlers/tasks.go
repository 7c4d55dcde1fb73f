package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

// TaskHandler provides HTTP handlers for tasks.
type TaskHandler struct {
	taskService *services.TaskService
	logger      logrus.FieldLogger
}

func NewTaskHandler(taskService *services.TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// TaskRouter registers task routes on the given router.
func TaskRouter(r chi.Router, handler *TaskHandler) {
	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Put("/", handler.UpdateTask)
		r.Patch("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
	})
}

// TaskRequest is the body of a task create request.
type TaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	AssignedTo  string           `json:"assigned_to"`
	Department  string           `json:"department"`
	DueDate     types.Date       `json:"due_date"`
	Priority    types.Priority   `json:"priority"`
	Status      types.TaskStatus `json:"status"`
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := types.TaskQuery{
		AssignedTo: strings.TrimSpace(query.Get("assigned_to")),
		Department: strings.TrimSpace(query.Get("department")),
		Search:     query.Get("q"),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" && raw != "all" {
		q.Status = types.TaskStatus(strings.ReplaceAll(strings.ToLower(raw), "-", "_"))
		if !q.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	tasks, err := h.taskService.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "list tasks", "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch task", "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.taskService.Create(r.Context(), types.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   userID,
		Department:  req.Department,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "create task", "task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTask merges the fields present in the body into the task. PUT and
// PATCH behave the same.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var patch types.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.taskService.Update(r.Context(), chi.URLParam(r, "taskID"), patch, userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "update task", "task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.taskService.Delete(r.Context(), chi.URLParam(r, "taskID"), userID); err != nil {
		writeServiceError(w, h.logger, err, "delete task", "task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
