package handler

import (
	"net/http"

	"github.com/nzoschke/cadence/internal/service"
)

type ArchiveHandler struct {
	archiveService *service.ArchiveService
}

func NewArchiveHandler(archiveService *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{
		archiveService: archiveService,
	}
}

func (h *ArchiveHandler) Journal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	entry, err := h.archiveService.Journal(r.Context(), user.ID, r.PathValue("date"), body.Body)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *ArchiveHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input service.ArchiveInput
	if !decodeJSON(w, r, &input) {
		return
	}

	day, err := h.archiveService.Archive(r.Context(), user.ID, input)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

func (h *ArchiveHandler) Day(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	day, err := h.archiveService.Day(r.Context(), user.ID, r.PathValue("date"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

func (h *ArchiveHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	archives, err := h.archiveService.Recent(r.Context(), user.ID, queryInt(r, "limit"))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, archives)
}

func (h *ArchiveHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.archiveService.Export(r.Context(), user.ID)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
