package handlers

import (
	"log/slog"
	"net/http"

	"github.com/unicollab/unicollab/internal/logger"
	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/middleware"
	"github.com/unicollab/unicollab/internal/transport/ws"
)

type RouterDeps struct {
	Auth          *service.AuthService
	Projects      *service.ProjectService
	Requests      *service.CollaborationService
	Notifications *service.NotificationService
	Teams         *service.TeamService
	// Hub is optional; without it the realtime endpoint is not mounted.
	Hub         *ws.Hub
	CORSOrigins []string
	Log         *slog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, logger.With(d.Log, "auth"))
	projectHandler := NewProjectHandler(d.Projects, logger.With(d.Log, "projects"))
	collabHandler := NewCollaborationHandler(d.Requests, logger.With(d.Log, "collaboration"))
	notificationHandler := NewNotificationHandler(d.Notifications, logger.With(d.Log, "notifications"))
	teamHandler := NewTeamHandler(d.Teams, logger.With(d.Log, "teams"))

	auth := middleware.Auth(d.Auth, logger.With(d.Log, "auth"))
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "UniCollab API Running")
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/projects", projectHandler.List)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.Get)
	mux.HandleFunc("GET /api/teams", teamHandler.List)
	mux.HandleFunc("GET /api/teams/{id}", teamHandler.Get)

	// Protected - Auth
	mux.Handle("GET /api/auth/me", protected(authHandler.Me))
	mux.Handle("PUT /api/auth/me", protected(authHandler.UpdateMe))

	// Protected - Projects
	mux.Handle("GET /api/projects/mine", protected(projectHandler.Mine))
	mux.Handle("POST /api/projects", protected(projectHandler.Create))
	mux.Handle("PUT /api/projects/{id}", protected(projectHandler.Update))
	mux.Handle("DELETE /api/projects/{id}", protected(projectHandler.Delete))
	mux.Handle("POST /api/projects/{id}/join", protected(projectHandler.Join))
	mux.Handle("POST /api/projects/{id}/leave", protected(projectHandler.Leave))
	mux.Handle("GET /api/dashboard/stats", protected(projectHandler.Stats))

	// Protected - Collaboration requests
	mux.Handle("POST /api/collaboration-requests", protected(collabHandler.Submit))
	mux.Handle("GET /api/collaboration-requests", protected(collabHandler.List))
	mux.Handle("GET /api/collaboration-requests/mine", protected(collabHandler.Mine))
	mux.Handle("PUT /api/collaboration-requests/{id}/accept", protected(collabHandler.Accept))
	mux.Handle("PUT /api/collaboration-requests/{id}/reject", protected(collabHandler.Reject))
	mux.Handle("DELETE /api/collaboration-requests/{id}", protected(collabHandler.Withdraw))

	// Protected - Notifications
	mux.Handle("GET /api/notifications", protected(notificationHandler.List))
	mux.Handle("GET /api/notifications/unread/count", protected(notificationHandler.UnreadCount))
	mux.Handle("PUT /api/notifications/read-all", protected(notificationHandler.MarkAllRead))
	mux.Handle("PUT /api/notifications/{id}/read", protected(notificationHandler.MarkRead))
	mux.Handle("DELETE /api/notifications/{id}", protected(notificationHandler.Delete))

	// Protected - Teams
	mux.Handle("POST /api/teams", protected(teamHandler.Create))
	mux.Handle("PUT /api/teams/{id}", protected(teamHandler.Update))
	mux.Handle("DELETE /api/teams/{id}", protected(teamHandler.Delete))
	mux.Handle("POST /api/teams/{id}/members", protected(teamHandler.AddMember))
	mux.Handle("DELETE /api/teams/{id}/members/{userId}", protected(teamHandler.RemoveMember))

	// Realtime
	if d.Hub != nil {
		mux.Handle("GET /api/ws", ws.ServeWS(d.Hub, d.Auth, d.CORSOrigins, logger.With(d.Log, "ws")))
	}

	cors := middleware.DefaultCORSConfig()
	if len(d.CORSOrigins) > 0 {
		cors.AllowedOrigins = d.CORSOrigins
	}

	return middleware.Chain(mux,
		middleware.Recovery(d.Log),
		middleware.Logger(logger.With(d.Log, "http")),
		middleware.CORS(cors),
	)
}
