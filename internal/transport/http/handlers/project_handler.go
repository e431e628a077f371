package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/middleware"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	log            *slog.Logger
}

func NewProjectHandler(projectService *service.ProjectService, log *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, log: log}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProjectFilter{
		Status:   domain.ProjectStatus(q.Get("status")),
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		Skills:   splitList(q.Get("skills")),
		SortBy:   q.Get("sortBy"),
		Order:    strings.ToLower(q.Get("order")),
		Page:     parsePage(r),
	}

	resp, err := h.projectService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, "list projects", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) Mine(w http.ResponseWriter, r *http.Request) {
	resp, err := h.projectService.ListMine(r.Context(), middleware.GetUserID(r.Context()), parsePage(r))
	if err != nil {
		writeServiceError(w, r, h.log, "list my projects", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, r, h.log, "get project", err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	project, err := h.projectService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, "create project", err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	var input service.UpdateProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	project, err := h.projectService.Update(r.Context(), projectID, middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, "update project", err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), projectID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.log, "delete project", err)
		return
	}

	writeMessage(w, http.StatusOK, "Project deleted")
}

func (h *ProjectHandler) Join(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Join(r.Context(), projectID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, "join project", err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Leave(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Leave(r.Context(), projectID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, "leave project", err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.projectService.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, "dashboard stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// splitList parses a comma separated query value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
