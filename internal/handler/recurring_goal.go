package handler

import (
	"net/http"

	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/service"
)

type RecurringGoalHandler struct {
	goalService *service.RecurringGoalService
	clock       *schedule.Clock
}

func NewRecurringGoalHandler(goalService *service.RecurringGoalService, clock *schedule.Clock) *RecurringGoalHandler {
	return &RecurringGoalHandler{
		goalService: goalService,
		clock:       clock,
	}
}

func (h *RecurringGoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	goals, err := h.goalService.List(r.Context(), user.ID)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *RecurringGoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input model.RecurringGoalInput
	if !decodeJSON(w, r, &input) {
		return
	}

	goal, err := h.goalService.Create(r.Context(), user.ID, input, h.clock.Today())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *RecurringGoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.ByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *RecurringGoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var update model.RecurringGoalUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	goal, err := h.goalService.Update(r.Context(), user.ID, r.PathValue("id"), update)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *RecurringGoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.goalService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecurringGoalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	outcome, err := h.goalService.Complete(r.Context(), user.ID, r.PathValue("id"), h.clock.Today())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (h *RecurringGoalHandler) TodayStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	statuses, err := h.goalService.TodayStatus(r.Context(), user.ID, h.clock.Today())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statuses)
}

func (h *RecurringGoalHandler) GenerateDailyTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.goalService.GenerateDailyTasks(r.Context(), user.ID, h.clock.Today())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RecurringGoalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.goalService.Stats(r.Context(), user.ID, r.PathValue("id"), h.clock.Today())
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *RecurringGoalHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	history, err := h.goalService.History(r.Context(), user.ID, r.PathValue("id"), queryInt(r, "limit"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
