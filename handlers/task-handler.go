package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"task-management/backend/apperrors"
	"task-management/backend/middleware"
	"task-management/backend/models"
	"task-management/backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	Assignee    string `json:"assignee"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Assignee    *string `json:"assignee"`
}

// parseDueDate accepts the plain date the forms send as well as a full
// timestamp.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.Validationf("invalid due date %q", value)
	}
	return t, nil
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validationf("invalid request payload"))
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
	}
	if req.DueDate != "" {
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			writeError(w, err)
			return
		}
		input.DueDate = dueDate
	}
	if req.Assignee != "" {
		assigneeID, err := primitive.ObjectIDFromHex(req.Assignee)
		if err != nil {
			writeError(w, apperrors.Validationf("invalid assignee ID format"))
			return
		}
		input.Assignee = &assigneeID
	}

	task, err := h.service.CreateTask(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	var filter models.TaskFilter
	if status := r.URL.Query().Get("status"); status != "" {
		s := models.TaskStatus(status)
		if !s.Valid() {
			writeError(w, apperrors.Validationf("invalid status %q", status))
			return
		}
		filter.Status = &s
	}
	if assignee := r.URL.Query().Get("assignee"); assignee != "" {
		assigneeID, err := primitive.ObjectIDFromHex(assignee)
		if err != nil {
			writeError(w, apperrors.Validationf("invalid assignee ID format"))
			return
		}
		filter.Assignee = &assigneeID
	}

	tasks, err := h.service.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid task ID format"))
		return
	}
	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) GetTasksForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid user ID format"))
		return
	}
	tasks, err := h.service.GetTasksForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// UpdateTask applies a partial update. Admins may patch any field; a team
// member may only patch status and description on a task assigned to them.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid task ID format"))
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validationf("invalid request payload"))
		return
	}

	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	if !session.IsAdmin() {
		if req.Title != nil || req.Priority != nil || req.DueDate != nil || req.Assignee != nil {
			http.Error(w, "Access forbidden: only status and description may be updated", http.StatusForbidden)
			return
		}
		task, err := h.service.GetTask(r.Context(), taskID)
		if err != nil {
			writeError(w, err)
			return
		}
		if task.Assignee == nil || *task.Assignee != session.UserID {
			http.Error(w, "Access forbidden: task is not assigned to you", http.StatusForbidden)
			return
		}
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.DueDate = &dueDate
	}
	if req.Assignee != nil {
		if *req.Assignee == "" {
			patch.Unassign = true
		} else {
			assigneeID, err := primitive.ObjectIDFromHex(*req.Assignee)
			if err != nil {
				writeError(w, apperrors.Validationf("invalid assignee ID format"))
				return
			}
			patch.Assignee = &assigneeID
		}
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid task ID format"))
		return
	}
	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
