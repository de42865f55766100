package collab

import (
	"encoding/json"
	"errors"
	"net/http"

	"codecollab/engine"
	"codecollab/internal/collab/model"
	"codecollab/internal/collab/service"
	"codecollab/pkg/logger"
)

type Handler struct {
	Service *service.CollabService
}

func NewHandler(svc *service.CollabService) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.Service.CreateSession(req.ProjectID, req.Name)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create session: %v", err)
		http.Error(w, "Failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.CreateSessionResponse{SessionID: sess.ID})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}

	sess, ok := h.Service.Engine.GetSession(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse(sess))
}

func (h *Handler) InitializeFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.InitializeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" || req.FileID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.InitializeFile(req.SessionID, req.FileID); err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.Sugar.Errorf("Handler: Failed to initialize file %s: %v", req.FileID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("File initialized"))
}

func sessionResponse(sess engine.Session) model.SessionResponse {
	resp := model.SessionResponse{
		ID:           sess.ID,
		ProjectID:    sess.ProjectID,
		Name:         sess.Name,
		Active:       sess.Active,
		CreatedAt:    sess.CreatedAt,
		Participants: []model.ParticipantInfo{},
		Files:        []model.FileInfo{},
	}
	for _, u := range sess.Users {
		resp.Participants = append(resp.Participants, model.ParticipantInfo{
			ID:     u.ID,
			Name:   u.Name,
			Color:  u.Color,
			Status: u.Status,
		})
	}
	for _, f := range sess.Files {
		resp.Files = append(resp.Files, model.FileInfo{FileID: f.FileID, Version: f.Version})
	}
	return resp
}
