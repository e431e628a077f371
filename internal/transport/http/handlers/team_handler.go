package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/middleware"
)

type TeamHandler struct {
	teamService *service.TeamService
	log         *slog.Logger
}

func NewTeamHandler(teamService *service.TeamService, log *slog.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, log: log}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TeamFilter{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: q.Get("sortBy"),
		Order:  strings.ToLower(q.Get("order")),
		Page:   parsePage(r),
	}

	resp, err := h.teamService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, "list teams", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "id", "team")
	if !ok {
		return
	}

	team, err := h.teamService.Get(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, r, h.log, "get team", err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateTeamInput
	if !decodeJSON(w, r, &input) {
		return
	}

	team, err := h.teamService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, "create team", err)
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "id", "team")
	if !ok {
		return
	}

	var input service.UpdateTeamInput
	if !decodeJSON(w, r, &input) {
		return
	}

	team, err := h.teamService.Update(r.Context(), teamID, middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, "update team", err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "id", "team")
	if !ok {
		return
	}

	if err := h.teamService.Delete(r.Context(), teamID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.log, "delete team", err)
		return
	}

	writeMessage(w, http.StatusOK, "Team deleted")
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "id", "team")
	if !ok {
		return
	}

	var input service.AddTeamMemberInput
	if !decodeJSON(w, r, &input) {
		return
	}

	team, err := h.teamService.AddMember(r.Context(), teamID, middleware.GetUserID(r.Context()), input.UserID)
	if err != nil {
		writeServiceError(w, r, h.log, "add team member", err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "id", "team")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	team, err := h.teamService.RemoveMember(r.Context(), teamID, middleware.GetUserID(r.Context()), memberID)
	if err != nil {
		writeServiceError(w, r, h.log, "remove team member", err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}
