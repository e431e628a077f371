package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/middleware"
)

type CollaborationHandler struct {
	collabService *service.CollaborationService
	log           *slog.Logger
}

func NewCollaborationHandler(collabService *service.CollaborationService, log *slog.Logger) *CollaborationHandler {
	return &CollaborationHandler{collabService: collabService, log: log}
}

func (h *CollaborationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input service.SubmitRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	req, err := h.collabService.Submit(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, h.log, "submit request", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// List returns requests on projects the caller owns.
func (h *CollaborationHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.RequestStatus(r.URL.Query().Get("status"))

	resp, err := h.collabService.List(r.Context(), middleware.GetUserID(r.Context()), status, parsePage(r))
	if err != nil {
		writeServiceError(w, r, h.log, "list requests", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CollaborationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	status := domain.RequestStatus(r.URL.Query().Get("status"))

	resp, err := h.collabService.ListMine(r.Context(), middleware.GetUserID(r.Context()), status, parsePage(r))
	if err != nil {
		writeServiceError(w, r, h.log, "list my requests", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CollaborationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.collabService.Accept, "accept request")
}

func (h *CollaborationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.collabService.Reject, "reject request")
}

type respondFunc func(ctx context.Context, requestID, responderID uuid.UUID) (*domain.CollaborationRequest, error)

func (h *CollaborationHandler) respond(w http.ResponseWriter, r *http.Request, fn respondFunc, op string) {
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	req, err := fn(r.Context(), requestID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *CollaborationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := h.collabService.Withdraw(r.Context(), requestID, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, h.log, "withdraw request", err)
		return
	}

	writeMessage(w, http.StatusOK, "Request withdrawn")
}
