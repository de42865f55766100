package router

import (
	"net/http"

	"codecollab/engine"
	collab "codecollab/internal/collab"
	"codecollab/middleware"
	"codecollab/socket"
)

func Setup(hub *socket.Hub, collabHandler *collab.Handler) http.Handler {
	mux := http.NewServeMux()

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := r.Context().Value(middleware.ClaimsKey).(middleware.UserClaims)
		socket.ServeWs(hub, w, r, userFromClaims(claims))
	})
	mux.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	auth := middleware.AuthMiddleware
	mux.Handle("/api/sessions/create", auth(http.HandlerFunc(collabHandler.CreateSession)))
	mux.Handle("/api/sessions", auth(http.HandlerFunc(collabHandler.GetSession)))
	mux.Handle("/api/sessions/files/initialize", auth(http.HandlerFunc(collabHandler.InitializeFile)))

	return middleware.CORSMiddleware(mux)
}

// userFromClaims builds the descriptor the engine trusts at join time.
func userFromClaims(claims middleware.UserClaims) engine.User {
	return engine.User{
		ID:     claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Avatar: claims.Avatar,
		Permissions: engine.Permissions{
			CanEdit:    claims.CanEdit,
			CanComment: true,
			CanShare:   claims.CanShare,
			CanDelete:  claims.CanDelete,
		},
	}
}
