package handler

import (
	"net/http"

	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input model.TaskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	task, err := h.taskService.Create(r.Context(), user.ID, input)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.ByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var update model.TaskUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	task, err := h.taskService.Update(r.Context(), user.ID, r.PathValue("id"), update)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Toggle(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.taskService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	subtasks, err := h.taskService.Breakdown(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"subtasks": subtasks})
}

func (h *TaskHandler) AcceptBreakdown(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Subtasks []model.SubtaskSuggestion `json:"subtasks"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := h.taskService.AcceptBreakdown(r.Context(), user.ID, r.PathValue("id"), body.Subtasks)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"subtasks": created})
}
